// Package store defines the directory store interfaces. Every method takes a
// db.Handler so callers decide the transaction boundary.
package store

// Store is an interface for managing identities, privileged users, and
// conference records.
type Store interface {
	IdentityStore
	PrivilegedUserStore
	CommitteeStore
	ApplicationStore
	PaperStore
}
