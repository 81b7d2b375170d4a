// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

// Package store owns the connection to the vector database and exposes the
// collection-scoped primitives the indexing and retrieval pipelines use.
//
// Transports for concrete databases live in sub-packages and are plugged in
// through a Dialer. The Connection dials lazily, exactly once.
package store

import (
	"context"
	"time"
)

// Property names of the fixed collection schema.
const (
	PropContent     = "content"
	PropContentType = "contentType"
	PropMetadata    = "metadata"
)

// DefaultSearchLimit is used when SearchOptions.Limit is not positive.
const DefaultSearchLimit = 10

// Well-known local endpoints.
const (
	DefaultHost     = "localhost"
	DefaultHTTPPort = 8080
	DefaultGRPCPort = 50051
	DefaultTimeout  = 30 * time.Second
)

// ClientParams describes how to reach the vector store.
type ClientParams struct {
	// Provider selects the transport: weaviate, qdrant, sqlite or memory.
	Provider string            `koanf:"provider" json:"provider,omitempty"`
	Host     string            `koanf:"host" json:"host,omitempty"`
	Port     int               `koanf:"port" json:"port,omitempty"`
	GRPCPort int               `koanf:"grpc_port" json:"grpcPort,omitempty"`
	Secure   bool              `koanf:"secure" json:"secure,omitempty"`
	APIKey   string            `koanf:"api_key" json:"apiKey,omitempty"`
	Headers  map[string]string `koanf:"headers" json:"headers,omitempty"`
	// Timeout bounds connection establishment only.
	Timeout time.Duration `koanf:"timeout" json:"timeout,omitempty"`
	// Path is the database file for embedded transports.
	Path string `koanf:"path" json:"path,omitempty"`
}

// Cloud reports whether the params select the authenticated cloud mode.
func (p ClientParams) Cloud() bool {
	return p.APIKey != ""
}

// WithDefaults fills the local-mode defaults for unset fields.
func (p ClientParams) WithDefaults() ClientParams {
	if p.Host == "" {
		p.Host = DefaultHost
	}
	if !p.Cloud() {
		if p.Port == 0 {
			p.Port = DefaultHTTPPort
		}
		if p.GRPCPort == 0 {
			p.GRPCPort = DefaultGRPCPort
		}
	}
	if p.Timeout <= 0 {
		p.Timeout = DefaultTimeout
	}
	return p
}

// PropertyConfig declares an extra collection property.
type PropertyConfig struct {
	Name        string `koanf:"name" json:"name"`
	DataType    string `koanf:"data_type" json:"dataType"`
	Description string `koanf:"description" json:"description,omitempty"`
}

// CollectionConfig describes a collection to provision. The fixed
// content/contentType/metadata schema is always created; Properties are
// appended to it by transports that support extra properties.
type CollectionConfig struct {
	Name        string           `koanf:"name" json:"name,omitempty"`
	Description string           `koanf:"description" json:"description,omitempty"`
	VectorSize  int              `koanf:"vector_size" json:"vectorSize,omitempty"`
	Properties  []PropertyConfig `koanf:"properties" json:"properties,omitempty"`
}

// Properties is the fixed property set of a stored object.
type Properties struct {
	Content     string `json:"content"`
	ContentType string `json:"contentType"`
	// Metadata is the JSON-encoded document metadata.
	Metadata string `json:"metadata"`
}

// Object is one persisted unit carrying exactly one vector.
type Object struct {
	// ID is optional on insert; the store assigns one when empty.
	ID         string     `json:"id,omitempty"`
	Properties Properties `json:"properties"`
	Vector     []float32  `json:"vector,omitempty"`
}

// SearchOptions shape a nearest-neighbour query.
type SearchOptions struct {
	Limit int
	// Distance is a maximum-distance cutoff passed through to the store.
	Distance *float32
	Filter   *Filter
}

// ScoredObject is a search hit. Distance is nil when the store did not report one.
type ScoredObject struct {
	Object   Object   `json:"object"`
	Distance *float32 `json:"distance,omitempty"`
}

// SearchResult holds hits nearest-first, in store order.
type SearchResult struct {
	Results []ScoredObject `json:"results"`
	Count   int            `json:"count"`
}

// CollectionInfo is the stored configuration of a collection.
type CollectionInfo struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// CollectionStats is a point-in-time snapshot of a collection.
type CollectionStats struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	ObjectCount int64  `json:"objectCount" yaml:"objectCount"`
}

// Transport is a connected client for one vector database.
type Transport interface {
	// CollectionExists reports whether name exists. Errors are returned to
	// the Connection, which decides how to treat them.
	CollectionExists(ctx context.Context, name string) (bool, error)
	CreateCollection(ctx context.Context, cfg CollectionConfig) error
	GetCollection(ctx context.Context, name string) (CollectionInfo, error)
	DeleteCollection(ctx context.Context, name string) error
	// InsertObjects writes objects in one batch and returns the assigned IDs
	// in input order.
	InsertObjects(ctx context.Context, collection string, objects []Object) ([]string, error)
	// DeleteObject removes a single object. A missing object is not an error.
	DeleteObject(ctx context.Context, collection, id string) error
	Search(ctx context.Context, collection string, vector []float32, opts SearchOptions) ([]ScoredObject, error)
	CountObjects(ctx context.Context, collection string) (int64, error)
	Close() error
}

// Dialer opens a Transport. It is called at most once per Connection.
type Dialer func(ctx context.Context, params ClientParams) (Transport, error)
