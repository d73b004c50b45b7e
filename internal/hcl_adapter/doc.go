// Package hcl_adapter decodes component catalogs written in HCL.
//
// A catalog file is made of top level `aspect`, `component`, `sandbox` and
// `command` blocks:
//
//	aspect "code" {
//	  type = "code"
//	  vcsrepo {
//	    provider = "git"
//	    source   = "git@example.com:${user.git.name}/${component}.git"
//	    revision = "${branch}"
//	  }
//	}
//
//	component "app" {
//	  attributes = { platforms = all_platforms }
//	  depends "lib" {}
//	  depends "zlib" { type = "built" }
//	}
//
// Template variables in `source` and `revision` are not evaluated here. They
// are written back as `${...}` placeholders and substituted later, per
// resolution. Every other expression is evaluated against a small context
// exposing `all_platforms`.
package hcl_adapter
