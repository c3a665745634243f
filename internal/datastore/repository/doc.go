// Package repository provides data access for tones, samples and notes.
//
// Repositories are thin wrappers over a *gorm.DB. A Set bundles them so that
// a sequence of reads and writes can share one transaction:
//
//	err := repos.Transaction(ctx, func(tx *repository.Set) error {
//	    tone, err := tx.Tones.GetOrCreate(ctx, "piano")
//	    ...
//	})
package repository
