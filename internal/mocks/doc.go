// Package mocks provides centralized mock implementations for testing.
//
// Each mock exposes function fields (CreateFn, GetByIDFn, ...) that override
// one method, and otherwise falls back to a small in-memory implementation
// so most tests only need to seed data.
//
//	users := mocks.NewMockUserStore()
//	users.Add(user)
//	users.UpdateFn = func(ctx context.Context, u *domain.User) error {
//	    return errors.New("boom")
//	}
//
// When adding a new mock to this package:
//  1. Create a new file named after the interface being mocked
//  2. Implement the mock struct with function fields for the methods tests override
//  3. Add a compile-time assertion that the mock satisfies the interface
package mocks
