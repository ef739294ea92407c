package repository

import "testing"

// PostgresSweetRepoはSweetRepositoryインターフェースを満たすことを検証
func TestPostgresSweetRepo_ImplementsInterface(t *testing.T) {
	var _ SweetRepository = (*PostgresSweetRepo)(nil)
}

// PostgresAccountRepoはAccountRepositoryインターフェースを満たすことを検証
func TestPostgresAccountRepo_ImplementsInterface(t *testing.T) {
	var _ AccountRepository = (*PostgresAccountRepo)(nil)
}

// NewPostgresSweetRepoが正しく初期化されることを検証
func TestNewPostgresSweetRepo_Initializes(t *testing.T) {
	repo := NewPostgresSweetRepo(nil)
	if repo == nil {
		t.Fatal("expected non-nil repo")
	}
}

// NewPostgresAccountRepoが正しく初期化されることを検証
func TestNewPostgresAccountRepo_Initializes(t *testing.T) {
	repo := NewPostgresAccountRepo(nil)
	if repo == nil {
		t.Fatal("expected non-nil repo")
	}
}
