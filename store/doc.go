// Package store houses concrete implementations of the core.BranchStore
// contract. The interface itself lives in the core package to centralize
// domain contracts; keeping only implementations here prevents higher level
// packages (engine, tools) from depending on concrete storage.
//
// InMemoryStore is the volatile reference backend. The relational backend
// with ancestor-path compression lives in the sqlstore subpackage. Add
// further backends in subpackages without changing any calling code; only
// the wiring layer decides which implementation to instantiate.
package store
