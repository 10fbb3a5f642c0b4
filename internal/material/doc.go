// Package material implements the material engine: catalog, ordering,
// settings snapshots, creation and mutation of materials on a layered
// document.
//
// # What a Material Is
//
// A material is not stored anywhere as an object. It is the set of channels
// sharing one `material` tag value: one channel per bound shader input, one
// mask channel, and optionally element mask channels. Its position in the
// user-visible order is the position of its link layer inside the material
// group of each primary input. Both identity and order are reconstructed from
// tags on every call; an Index built by Scan is valid only until the next
// mutation.
//
// # Naming
//
// For a material M and shader input I the engine creates:
//
//   - channel `M_I` (tags material=M, materialType=I) with a locked base
//     color layer `M_baseColor`;
//   - channel `M_Mask` (materialType=Mask, mask=true);
//   - inside the primary input channel `mI`, a link layer `M_I` in the
//     `mGroup` group whose mask stack links `M_Mask`.
//
// An element E of M adds channel `M_E` (element=E, mask=true) and, inside
// every non-mask channel of M, a group layer `M_E` tagged elementGroup=E whose
// mask stack links `M_E`.
//
// # Reordering
//
// The host has no move primitive for link layers, so Reconcile destroys and
// rebuilds every material group. Rendering settings of each link layer are
// captured onto the channel it renders before teardown and restored onto the
// new link. See Reconcile for the transaction policy.
//
// # Selection
//
// User-triggered operations take a Selection. An empty Selection is not an
// error: the operation returns an Outcome with Skipped set.
package material
