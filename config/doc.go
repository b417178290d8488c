// Package config provides a name registry and human-readable system configuration.
//
// Register modules, filters, failure handlers and observers by name, then define
// systems in YAML (or structs) that reference those names:
//
//	systems:
//	  words:
//	    stages: [trim, lower]
//	  greet:
//	    on_failure: log
//	    observers: [logging]
//	    stages:
//	      - name: clean
//	        system: words
//	      - name: shout
//	        modules: [upper, exclaim]
//	        pre_filter:
//	          and: [non-nil, {not: empty}]
//
// A stage written as a plain string is a pipe named after its single module.
// A stage with "system" nests another system of the same file, so BuildAllSystems
// builds systems in dependency order and rejects cycles (ErrCycle). WriteDOT renders
// the nesting graph for Graphviz.
package config
