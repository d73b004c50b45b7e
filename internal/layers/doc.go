// Package layers models a layered build schedule and the operations that
// reshape it.
//
// A Schedule is an ordered list of layers. Layer 0 builds first and holds
// the deepest dependencies; the last layer holds the root. Members of one
// layer may be built in parallel.
//
// # Why Optimize Exists
//
// Flattening a dependency tree by depth is correct but wasteful: a
// component only has to wait for the layers holding its built
// dependencies. Optimize pulls components into earlier layers until no
// further move is possible, which minimizes the number of sequential build
// stages without ever placing a component at or before something it
// consumes as a built artifact.
//
// # Why Combine Aligns From The Root
//
// Two schedules computed for different roots usually differ in depth but
// share infrastructure near the root end. Combine therefore aligns them on
// their last layers and pads the shorter one at the front.
package layers
