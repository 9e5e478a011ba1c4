package grpc

import (
	"context"
	"fmt"
	"time"

	"github.com/amirrudd/flyerboard/internal/adapter/grpc/middleware"
	"github.com/amirrudd/flyerboard/internal/listing/domain"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/metadata"
)

// FeedClient calls FeedService over a gRPC connection. It satisfies the
// feed cache's Source.
type FeedClient struct {
	conn  *grpc.ClientConn
	token string
	owned bool
}

// DialFeed opens an insecure connection with keepalive and tracing enabled.
func DialFeed(addr, token string, extra ...grpc.DialOption) (*FeedClient, error) {
	opts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithKeepaliveParams(keepalive.ClientParameters{
			Time:                time.Minute,
			Timeout:             20 * time.Second,
			PermitWithoutStream: true,
		}),
		middleware.TracingDialOption(),
	}, extra...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("dial feed service %s: %w", addr, err)
	}
	return &FeedClient{conn: conn, token: token, owned: true}, nil
}

// NewFeedClient wraps an existing connection; Close leaves it open.
func NewFeedClient(conn *grpc.ClientConn, token string) *FeedClient {
	return &FeedClient{conn: conn, token: token}
}

func (c *FeedClient) Close() error {
	if !c.owned {
		return nil
	}
	return c.conn.Close()
}

func (c *FeedClient) invoke(ctx context.Context, method string, req, resp interface{}) error {
	if c.token != "" {
		ctx = metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+c.token)
	}
	err := c.conn.Invoke(ctx, FullMethod(method), req, resp, grpc.CallContentSubtype(CodecName))
	return fromStatus(err)
}

func (c *FeedClient) ListPage(ctx context.Context, q domain.FeedQuery, cursor string, pageSize int) (*domain.Page, error) {
	var resp ListPageResponse
	if err := c.invoke(ctx, "ListPage", &ListPageRequest{Query: q, Cursor: cursor, PageSize: pageSize}, &resp); err != nil {
		return nil, err
	}
	if resp.Page == nil {
		return &domain.Page{Done: true, MaxCreationTime: q.MaxCreationTime}, nil
	}
	return resp.Page, nil
}

func (c *FeedClient) ListSince(ctx context.Context, q domain.FeedQuery, since time.Time, limit int) ([]*domain.Listing, error) {
	var resp ListingsResponse
	if err := c.invoke(ctx, "ListSince", &ListSinceRequest{Query: q, Since: since, Limit: limit}, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

func (c *FeedClient) IncrementViews(ctx context.Context, id string) error {
	return c.invoke(ctx, "IncrementViews", &ListingIDRequest{ID: id}, &Empty{})
}

func (c *FeedClient) GetListing(ctx context.Context, id string) (*ListingResponse, error) {
	var resp ListingResponse
	if err := c.invoke(ctx, "GetListing", &ListingIDRequest{ID: id}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *FeedClient) CreateListing(ctx context.Context, in domain.ListingInput) (*domain.Listing, error) {
	var resp ListingResponse
	if err := c.invoke(ctx, "CreateListing", &CreateListingRequest{Input: in}, &resp); err != nil {
		return nil, err
	}
	return resp.Listing, nil
}

func (c *FeedClient) ListCategories(ctx context.Context) ([]*domain.Category, error) {
	var resp ListCategoriesResponse
	if err := c.invoke(ctx, "ListCategories", &Empty{}, &resp); err != nil {
		return nil, err
	}
	return resp.Categories, nil
}
