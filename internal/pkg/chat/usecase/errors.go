package usecase

import "fmt"

// ErrPersistence indicates an infrastructure/repository failure inside a use case
var ErrPersistence = fmt.Errorf("chat use case persistence error")

// ErrNotFound indicates the referenced conversation does not exist
var ErrNotFound = fmt.Errorf("chat use case: conversation not found")
