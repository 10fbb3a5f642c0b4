// Package hcldoc reads and writes documents in an HCL file format.
//
// # Purpose
//
// The material engine operates on a host-owned document. Outside the host the
// document has to live somewhere, so hcldoc gives it a plain text form: one
// `channel` block per channel with its tags and nested `layer` blocks, one
// `shader` block per shader with its input bindings, and an optional
// `selection` block holding the cursor.
//
// # Format
//
//	shader "mBeauty" {
//	  inputs = ["Diffuse"]
//	  bind "Diffuse" { channel = "mDiffuse" }
//	  tag "isMaterialShader" { value = true }
//	}
//	channel "mDiffuse" {
//	  tag "isPrimaryInput" { value = true }
//	  layer "mGroup" {
//	    kind = "group"
//	    tag "materialGroup" { value = true }
//	  }
//	  layer "Base" {
//	    kind  = "procedural"
//	    color = [0, 0, 0, 1]
//	  }
//	}
//	selection {
//	  channel = "mDiffuse"
//	}
//
// Layers are listed top first. A tag carries either `value` (bool, string or
// number) or `curve` (control-point string); `session = true` marks a tag that
// is dropped on save.
//
// # Round-Tripping
//
// Load builds an in-memory document (internal/memdoc). Save accepts any
// docgraph.Document, writes only persistent tags and only rendering attributes
// that differ from their defaults, so Save(Load(x)) is stable.
package hcldoc
