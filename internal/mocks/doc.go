// Package mocks provides centralized test doubles for the store interfaces
// and the application services.
//
// MemoryDB backs every store interface with in-memory slices and doubles as
// a store.Transactor, so services can be exercised end to end without a
// database:
//
//	db := mocks.NewMemoryDB()
//	db.AddLearner(profile)
//	db.CreateAttemptErr = store.ErrPersistence // inject a failure
//	svc, _ := prediction.NewService(reg, prediction.Stores{
//	    Learners: db.Learners(),
//	    Tx:       db,
//	    ...
//	}, cfg, nil, logger)
//
// Service mocks follow the function-field pattern: set the Fn for the
// behaviour a test cares about and leave the rest at their defaults.
package mocks
