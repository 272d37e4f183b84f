// Package piewpiew is the composition root of a small reactive model layer.
//
// Models are property stores with validated fields and batched change events.
// Each model type owns a manager that builds deferred, single-use query sets
// and routes saves and loads to a pluggable storage adaptor.
//
// Features:
//
//   - **Batched change events**: one CHANGE notification per update, listing every changed property.
//   - **Validated fields**: type, presence and validator chains with templated messages.
//   - **Deferred queries**: filters are queued and run in order after a single load.
//   - **Adaptors**: an in-memory reference adaptor and a file-per-record fs adaptor with watching.
//   - **Typed access**: generic records and attributes over untyped models.
//
// Usage:
//
//	person := piewpiew.Define("person", piewpiew.Fields{
//		"name": piewpiew.String(piewpiew.Required()),
//	})
//
//	person.Objects().Filter(piewpiew.Lookups{"name": "Amy"}).All(ctx, func(records []*piewpiew.Model, err error) {
//		// ...
//	})
package piewpiew
