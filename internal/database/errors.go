package database

import (
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	ErrNotFound   = errors.New("document not found")
	ErrStaleWrite = errors.New("document changed since it was read")
	ErrDuplicate  = errors.New("document already exists")
)

// QueryFailure is a failed read. Aggregating callers collapse it to a
// default; callers awaiting a direct result surface it.
type QueryFailure struct {
	Collection string
	Op         string
	Err        error
}

func (e *QueryFailure) Error() string {
	return fmt.Sprintf("query %s.%s: %v", e.Collection, e.Op, e.Err)
}

func (e *QueryFailure) Unwrap() error {
	return e.Err
}

// WriteFailure is a failed write. It is never retried here.
type WriteFailure struct {
	Collection string
	Op         string
	Err        error
}

func (e *WriteFailure) Error() string {
	return fmt.Sprintf("write %s.%s: %v", e.Collection, e.Op, e.Err)
}

func (e *WriteFailure) Unwrap() error {
	return e.Err
}

func queryFailure(collection, op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return &QueryFailure{Collection: collection, Op: op, Err: err}
}

func writeFailure(collection, op string, err error) error {
	if err == nil {
		return nil
	}
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	return &WriteFailure{Collection: collection, Op: op, Err: err}
}

// OutOfStockError reports a checkout line the product cannot cover.
type OutOfStockError struct {
	ProductID primitive.ObjectID
	Available int
	Requested int
}

func (e OutOfStockError) Error() string {
	return "product out of stock"
}

type ProductNotFoundError struct {
	ProductID primitive.ObjectID
}

func (e ProductNotFoundError) Error() string {
	return "product not found"
}
