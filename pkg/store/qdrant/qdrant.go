// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

// Package qdrant is a vector store transport for Qdrant over gRPC.
//
// Collections use cosine distance. Qdrant reports similarity scores, so the
// distance cutoff is sent as score_threshold = 1 - distance and reported
// distances are 1 - score.
package qdrant

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"strconv"

	"github.com/google/uuid"
	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/encoding/protojson"

	"github.com/jllopis/kairos-weaviate/pkg/store"
)

// DefaultPort is Qdrant's gRPC port.
const DefaultPort = 6334

const metaDescription = "description"

// Store implements store.Transport on the Qdrant gRPC API.
type Store struct {
	conn        *grpc.ClientConn
	points      pb.PointsClient
	collections pb.CollectionsClient
	service     pb.QdrantClient
}

// Dial connects to Qdrant and checks it is serving. GRPCPort, then Port,
// select the port; DefaultPort is used when both are unset.
func Dial(ctx context.Context, params store.ClientParams) (store.Transport, error) {
	host := params.Host
	if host == "" {
		host = store.DefaultHost
	}
	port := params.GRPCPort
	if port == 0 {
		port = params.Port
	}
	if port == 0 {
		port = DefaultPort
	}

	opts := []grpc.DialOption{}
	if params.Secure || params.Cloud() {
		opts = append(opts, grpc.WithTransportCredentials(credentials.NewTLS(&tls.Config{MinVersion: tls.VersionTLS12})))
	} else {
		opts = append(opts, grpc.WithTransportCredentials(insecure.NewCredentials()))
	}
	if md := requestMetadata(params); md.Len() > 0 {
		opts = append(opts, grpc.WithUnaryInterceptor(withMetadata(md)))
	}

	conn, err := grpc.NewClient(net.JoinHostPort(host, strconv.Itoa(port)), opts...)
	if err != nil {
		return nil, fmt.Errorf("did not connect: %w", err)
	}
	s := New(conn)
	if _, err := s.service.HealthCheck(ctx, &pb.HealthCheckRequest{}); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("health check: %w", err)
	}
	return s, nil
}

// New wraps an established gRPC connection.
func New(conn *grpc.ClientConn) *Store {
	return &Store{
		conn:        conn,
		points:      pb.NewPointsClient(conn),
		collections: pb.NewCollectionsClient(conn),
		service:     pb.NewQdrantClient(conn),
	}
}

func requestMetadata(params store.ClientParams) metadata.MD {
	md := metadata.MD{}
	for k, v := range params.Headers {
		md.Set(k, v)
	}
	if params.APIKey != "" {
		md.Set("api-key", params.APIKey)
	}
	return md
}

func withMetadata(md metadata.MD) grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		ctx = metadata.NewOutgoingContext(ctx, metadata.Join(md, outgoing(ctx)))
		return invoker(ctx, method, req, reply, cc, opts...)
	}
}

func outgoing(ctx context.Context) metadata.MD {
	md, _ := metadata.FromOutgoingContext(ctx)
	return md
}

func (s *Store) CollectionExists(ctx context.Context, name string) (bool, error) {
	resp, err := s.collections.CollectionExists(ctx, &pb.CollectionExistsRequest{CollectionName: name})
	if err != nil {
		return false, err
	}
	return resp.GetResult().GetExists(), nil
}

func (s *Store) CreateCollection(ctx context.Context, cfg store.CollectionConfig) error {
	if cfg.VectorSize <= 0 {
		return fmt.Errorf("qdrant collections require a vector size")
	}
	req := &pb.CreateCollection{
		CollectionName: cfg.Name,
		VectorsConfig: pb.NewVectorsConfig(&pb.VectorParams{
			Size:     uint64(cfg.VectorSize),
			Distance: pb.Distance_Cosine,
		}),
	}
	if cfg.Description != "" {
		req.Metadata = map[string]*pb.Value{metaDescription: pb.NewValueString(cfg.Description)}
	}
	if _, err := s.collections.Create(ctx, req); err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}
	return nil
}

func (s *Store) GetCollection(ctx context.Context, name string) (store.CollectionInfo, error) {
	resp, err := s.collections.Get(ctx, &pb.GetCollectionInfoRequest{CollectionName: name})
	if err != nil {
		return store.CollectionInfo{}, err
	}
	meta := resp.GetResult().GetConfig().GetMetadata()
	return store.CollectionInfo{
		Name:        name,
		Description: meta[metaDescription].GetStringValue(),
	}, nil
}

func (s *Store) DeleteCollection(ctx context.Context, name string) error {
	resp, err := s.collections.Delete(ctx, &pb.DeleteCollection{CollectionName: name})
	if err != nil {
		return err
	}
	if !resp.GetResult() {
		return fmt.Errorf("collection %q was not deleted", name)
	}
	return nil
}

func (s *Store) InsertObjects(ctx context.Context, collection string, objects []store.Object) ([]string, error) {
	points := make([]*pb.PointStruct, len(objects))
	ids := make([]string, len(objects))
	for i, obj := range objects {
		id := obj.ID
		if id == "" {
			id = uuid.NewString()
		}
		ids[i] = id
		points[i] = toPoint(id, obj)
	}

	_, err := s.points.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: collection,
		Wait:           pb.PtrOf(true),
		Points:         points,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upsert points: %w", err)
	}
	return ids, nil
}

func (s *Store) DeleteObject(ctx context.Context, collection, id string) error {
	_, err := s.points.Delete(ctx, &pb.DeletePoints{
		CollectionName: collection,
		Wait:           pb.PtrOf(true),
		Points:         pb.NewPointsSelector(pointID(id)),
	})
	return err
}

func (s *Store) Search(ctx context.Context, collection string, vector []float32, opts store.SearchOptions) ([]store.ScoredObject, error) {
	req, err := searchRequest(collection, vector, opts)
	if err != nil {
		return nil, err
	}
	resp, err := s.points.Search(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to search points: %w", err)
	}
	results := make([]store.ScoredObject, len(resp.GetResult()))
	for i, r := range resp.GetResult() {
		results[i] = fromScored(r)
	}
	return results, nil
}

func (s *Store) CountObjects(ctx context.Context, collection string) (int64, error) {
	resp, err := s.points.Count(ctx, &pb.CountPoints{
		CollectionName: collection,
		Exact:          pb.PtrOf(true),
	})
	if err != nil {
		return 0, err
	}
	return int64(resp.GetResult().GetCount()), nil
}

func (s *Store) Close() error {
	return s.conn.Close()
}

func toPoint(id string, obj store.Object) *pb.PointStruct {
	return &pb.PointStruct{
		Id:      pointID(id),
		Vectors: pb.NewVectorsDense(obj.Vector),
		Payload: map[string]*pb.Value{
			store.PropContent:     pb.NewValueString(obj.Properties.Content),
			store.PropContentType: pb.NewValueString(obj.Properties.ContentType),
			store.PropMetadata:    pb.NewValueString(obj.Properties.Metadata),
		},
	}
}

// pointID accepts numeric ids as well as UUIDs.
func pointID(id string) *pb.PointId {
	if n, err := strconv.ParseUint(id, 10, 64); err == nil {
		return pb.NewIDNum(n)
	}
	return pb.NewID(id)
}

func searchRequest(collection string, vector []float32, opts store.SearchOptions) (*pb.SearchPoints, error) {
	filter, err := toFilter(opts.Filter)
	if err != nil {
		return nil, err
	}
	req := &pb.SearchPoints{
		CollectionName: collection,
		Vector:         vector,
		Limit:          uint64(opts.Limit),
		Filter:         filter,
		WithPayload:    pb.NewWithPayload(true),
	}
	if opts.Distance != nil {
		req.ScoreThreshold = pb.PtrOf(1 - *opts.Distance)
	}
	return req, nil
}

// toFilter accepts a native *qdrant.Filter or the JSON form of one.
func toFilter(f *store.Filter) (*pb.Filter, error) {
	if f.IsZero() {
		return nil, nil
	}
	if native, ok, err := store.NativeAs[*pb.Filter](f); err != nil {
		return nil, err
	} else if ok {
		return native, nil
	}
	raw, _ := f.Raw()
	filter := &pb.Filter{}
	if err := protojson.Unmarshal(raw, filter); err != nil {
		return nil, fmt.Errorf("decode qdrant filter: %w", err)
	}
	return filter, nil
}

func fromScored(r *pb.ScoredPoint) store.ScoredObject {
	id := r.GetId().GetUuid()
	if id == "" {
		id = strconv.FormatUint(r.GetId().GetNum(), 10)
	}
	payload := r.GetPayload()
	distance := 1 - r.GetScore()
	return store.ScoredObject{
		Object: store.Object{
			ID: id,
			Properties: store.Properties{
				Content:     payload[store.PropContent].GetStringValue(),
				ContentType: payload[store.PropContentType].GetStringValue(),
				Metadata:    payload[store.PropMetadata].GetStringValue(),
			},
		},
		Distance: &distance,
	}
}

var _ store.Transport = (*Store)(nil)
