// Package typedesc defines node-type descriptors: named, versioned
// capabilities with typed input and output ports. A Registry resolves type
// references coming from templates and recipes, which may be descriptor
// strings ("owner:name"), structural Refs, or already-resolved descriptors.
//
// Descriptors are registered explicitly with the owner carried on the
// descriptor itself; the registry never infers ownership from its caller.
package typedesc
