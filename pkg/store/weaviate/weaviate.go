// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

// Package weaviate is the Weaviate transport, built on the official Go client.
//
// Collections map to Weaviate classes with vectorizer "none"; the pipelines
// always supply vectors. Weaviate requires class names to start with an
// upper-case letter, so names are capitalized on the way in.
package weaviate

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
	"github.com/weaviate/weaviate-go-client/v4/weaviate"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/auth"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/fault"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/graphql"
	wgrpc "github.com/weaviate/weaviate-go-client/v4/weaviate/grpc"
	"github.com/weaviate/weaviate/entities/models"

	"github.com/jllopis/kairos-weaviate/pkg/store"
)

// VectorizerNone disables server-side vectorization.
const VectorizerNone = "none"

// Store implements store.Transport on a Weaviate client.
type Store struct {
	client *weaviate.Client
}

// Dial builds a client and waits for the instance to report ready.
// An API key selects cloud mode (https, TLS gRPC on grpc-<host>); otherwise
// the local defaults of localhost, 8080 and 50051 fill unset fields.
func Dial(ctx context.Context, params store.ClientParams) (store.Transport, error) {
	client, err := weaviate.NewClient(clientConfig(params))
	if err != nil {
		return nil, fmt.Errorf("create weaviate client: %w", err)
	}
	ready, err := client.Misc().ReadyChecker().Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("readiness check: %w", err)
	}
	if !ready {
		return nil, fmt.Errorf("weaviate at %s is not ready", params.Host)
	}
	return New(client), nil
}

// New wraps an existing client.
func New(client *weaviate.Client) *Store {
	return &Store{client: client}
}

func clientConfig(params store.ClientParams) weaviate.Config {
	params = params.WithDefaults()
	host := stripScheme(params.Host)

	cfg := weaviate.Config{
		Headers: params.Headers,
		Timeout: params.Timeout,
	}
	if params.Cloud() {
		cfg.Scheme = "https"
		cfg.Host = host
		cfg.AuthConfig = auth.ApiKey{Value: params.APIKey}
		cfg.GrpcConfig = &wgrpc.Config{Host: "grpc-" + host, Secured: true}
		if params.Port != 0 {
			cfg.Host = net.JoinHostPort(host, strconv.Itoa(params.Port))
		}
		return cfg
	}

	cfg.Scheme = "http"
	if params.Secure {
		cfg.Scheme = "https"
	}
	cfg.Host = net.JoinHostPort(host, strconv.Itoa(params.Port))
	cfg.GrpcConfig = &wgrpc.Config{
		Host:    net.JoinHostPort(host, strconv.Itoa(params.GRPCPort)),
		Secured: params.Secure,
	}
	return cfg
}

func stripScheme(host string) string {
	for _, prefix := range []string{"https://", "http://"} {
		host = strings.TrimPrefix(host, prefix)
	}
	return strings.TrimSuffix(host, "/")
}

// ClassName converts a collection name into a valid Weaviate class name.
func ClassName(name string) string {
	r, size := utf8.DecodeRuneInString(name)
	if r == utf8.RuneError {
		return name
	}
	return string(unicode.ToUpper(r)) + name[size:]
}

func (s *Store) CollectionExists(ctx context.Context, name string) (bool, error) {
	return s.client.Schema().ClassExistenceChecker().WithClassName(ClassName(name)).Do(ctx)
}

func (s *Store) CreateCollection(ctx context.Context, cfg store.CollectionConfig) error {
	return s.client.Schema().ClassCreator().WithClass(classFor(cfg)).Do(ctx)
}

func classFor(cfg store.CollectionConfig) *models.Class {
	props := []*models.Property{
		{Name: store.PropContent, DataType: []string{"text"}},
		{Name: store.PropContentType, DataType: []string{"text"}},
		{Name: store.PropMetadata, DataType: []string{"text"}},
	}
	for _, p := range cfg.Properties {
		dt := p.DataType
		if dt == "" {
			dt = "text"
		}
		props = append(props, &models.Property{Name: p.Name, DataType: []string{dt}, Description: p.Description})
	}
	return &models.Class{
		Class:       ClassName(cfg.Name),
		Description: cfg.Description,
		Vectorizer:  VectorizerNone,
		Properties:  props,
	}
}

func (s *Store) GetCollection(ctx context.Context, name string) (store.CollectionInfo, error) {
	class, err := s.client.Schema().ClassGetter().WithClassName(ClassName(name)).Do(ctx)
	if err != nil {
		return store.CollectionInfo{}, err
	}
	return store.CollectionInfo{Name: name, Description: class.Description}, nil
}

func (s *Store) DeleteCollection(ctx context.Context, name string) error {
	return s.client.Schema().ClassDeleter().WithClassName(ClassName(name)).Do(ctx)
}

func (s *Store) InsertObjects(ctx context.Context, collection string, objects []store.Object) ([]string, error) {
	batch, ids := toModels(ClassName(collection), objects)
	resp, err := s.client.Batch().ObjectsBatcher().WithObjects(batch...).Do(ctx)
	if err != nil {
		return nil, err
	}
	if err := batchErrors(resp); err != nil {
		return nil, err
	}
	return ids, nil
}

func toModels(class string, objects []store.Object) ([]*models.Object, []string) {
	out := make([]*models.Object, len(objects))
	ids := make([]string, len(objects))
	for i, obj := range objects {
		id := obj.ID
		if id == "" {
			id = uuid.NewString()
		}
		ids[i] = id
		out[i] = &models.Object{
			Class: class,
			ID:    strfmt.UUID(id),
			Properties: map[string]any{
				store.PropContent:     obj.Properties.Content,
				store.PropContentType: obj.Properties.ContentType,
				store.PropMetadata:    obj.Properties.Metadata,
			},
			Vector: obj.Vector,
		}
	}
	return out, ids
}

// batchErrors collects the per-object errors Weaviate reports in an otherwise
// successful batch response.
func batchErrors(resp []models.ObjectsGetResponse) error {
	var msgs []string
	for i, r := range resp {
		if r.Result == nil || r.Result.Errors == nil {
			continue
		}
		for _, e := range r.Result.Errors.Error {
			if e != nil && e.Message != "" {
				msgs = append(msgs, fmt.Sprintf("object %d (%s): %s", i, r.ID, e.Message))
			}
		}
	}
	if len(msgs) == 0 {
		return nil
	}
	return fmt.Errorf("batch insert failed for %d object(s): %s", len(msgs), strings.Join(msgs, "; "))
}

func (s *Store) DeleteObject(ctx context.Context, collection, id string) error {
	err := s.client.Data().Deleter().WithClassName(ClassName(collection)).WithID(id).Do(ctx)
	if isNotFound(err) {
		return nil
	}
	return err
}

func isNotFound(err error) bool {
	if err == nil {
		return false
	}
	var wErr *fault.WeaviateClientError
	return errors.As(err, &wErr) && wErr.StatusCode == http.StatusNotFound
}

func (s *Store) Search(ctx context.Context, collection string, vector []float32, opts store.SearchOptions) ([]store.ScoredObject, error) {
	class := ClassName(collection)
	where, err := whereFor(opts.Filter)
	if err != nil {
		return nil, err
	}

	nearVector := s.client.GraphQL().NearVectorArgBuilder().WithVector(vector)
	if opts.Distance != nil {
		nearVector = nearVector.WithDistance(*opts.Distance)
	}
	query := s.client.GraphQL().Get().
		WithClassName(class).
		WithFields(searchFields()...).
		WithNearVector(nearVector).
		WithLimit(opts.Limit)
	if where != nil {
		query = query.WithWhere(where)
	}

	resp, err := query.Do(ctx)
	if err != nil {
		return nil, err
	}
	if err := graphQLErrors(resp); err != nil {
		return nil, err
	}
	return parseGet(resp.Data, class)
}

func searchFields() []graphql.Field {
	return []graphql.Field{
		{Name: store.PropContent},
		{Name: store.PropContentType},
		{Name: store.PropMetadata},
		{Name: "_additional", Fields: []graphql.Field{{Name: "id"}, {Name: "distance"}}},
	}
}

func (s *Store) CountObjects(ctx context.Context, collection string) (int64, error) {
	class := ClassName(collection)
	resp, err := s.client.GraphQL().Aggregate().
		WithClassName(class).
		WithFields(graphql.Field{Name: "meta", Fields: []graphql.Field{{Name: "count"}}}).
		Do(ctx)
	if err != nil {
		return 0, err
	}
	if err := graphQLErrors(resp); err != nil {
		return 0, err
	}
	return parseCount(resp.Data, class)
}

// Close is a no-op; the Weaviate client holds no resources that need release.
func (s *Store) Close() error {
	return nil
}

var _ store.Transport = (*Store)(nil)
