package grpc

import (
	"context"

	"google.golang.org/grpc"
)

const ServiceName = "flyerboard.feed.v1.FeedService"

// FeedServiceServer is the server API of ServiceName.
type FeedServiceServer interface {
	ListPage(context.Context, *ListPageRequest) (*ListPageResponse, error)
	ListSince(context.Context, *ListSinceRequest) (*ListingsResponse, error)
	IncrementViews(context.Context, *ListingIDRequest) (*Empty, error)
	GetListing(context.Context, *ListingIDRequest) (*ListingResponse, error)
	CreateListing(context.Context, *CreateListingRequest) (*ListingResponse, error)
	UpdateListing(context.Context, *UpdateListingRequest) (*ListingResponse, error)
	SetListingActive(context.Context, *SetListingActiveRequest) (*ListingResponse, error)
	DeleteListing(context.Context, *ListingIDRequest) (*Empty, error)
	ListCategories(context.Context, *Empty) (*ListCategoriesResponse, error)
	AddFavorite(context.Context, *FavoriteRequest) (*Empty, error)
	RemoveFavorite(context.Context, *FavoriteRequest) (*Empty, error)
	ListFavorites(context.Context, *Empty) (*ListingsResponse, error)
	ResolveImages(context.Context, *ResolveImagesRequest) (*ResolveImagesResponse, error)
}

// FullMethod returns the "/service/method" path used by interceptors and clients.
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

func unary[Req any](method string, call func(FeedServiceServer, context.Context, *Req) (interface{}, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			s := srv.(FeedServiceServer)
			if interceptor == nil {
				return call(s, ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(method)}
			return interceptor(ctx, in, info, func(ctx context.Context, req interface{}) (interface{}, error) {
				return call(s, ctx, req.(*Req))
			})
		},
	}
}

// FeedServiceDesc describes the service for grpc.Server.RegisterService.
var FeedServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*FeedServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("ListPage", func(s FeedServiceServer, ctx context.Context, in *ListPageRequest) (interface{}, error) {
			return s.ListPage(ctx, in)
		}),
		unary("ListSince", func(s FeedServiceServer, ctx context.Context, in *ListSinceRequest) (interface{}, error) {
			return s.ListSince(ctx, in)
		}),
		unary("IncrementViews", func(s FeedServiceServer, ctx context.Context, in *ListingIDRequest) (interface{}, error) {
			return s.IncrementViews(ctx, in)
		}),
		unary("GetListing", func(s FeedServiceServer, ctx context.Context, in *ListingIDRequest) (interface{}, error) {
			return s.GetListing(ctx, in)
		}),
		unary("CreateListing", func(s FeedServiceServer, ctx context.Context, in *CreateListingRequest) (interface{}, error) {
			return s.CreateListing(ctx, in)
		}),
		unary("UpdateListing", func(s FeedServiceServer, ctx context.Context, in *UpdateListingRequest) (interface{}, error) {
			return s.UpdateListing(ctx, in)
		}),
		unary("SetListingActive", func(s FeedServiceServer, ctx context.Context, in *SetListingActiveRequest) (interface{}, error) {
			return s.SetListingActive(ctx, in)
		}),
		unary("DeleteListing", func(s FeedServiceServer, ctx context.Context, in *ListingIDRequest) (interface{}, error) {
			return s.DeleteListing(ctx, in)
		}),
		unary("ListCategories", func(s FeedServiceServer, ctx context.Context, in *Empty) (interface{}, error) {
			return s.ListCategories(ctx, in)
		}),
		unary("AddFavorite", func(s FeedServiceServer, ctx context.Context, in *FavoriteRequest) (interface{}, error) {
			return s.AddFavorite(ctx, in)
		}),
		unary("RemoveFavorite", func(s FeedServiceServer, ctx context.Context, in *FavoriteRequest) (interface{}, error) {
			return s.RemoveFavorite(ctx, in)
		}),
		unary("ListFavorites", func(s FeedServiceServer, ctx context.Context, in *Empty) (interface{}, error) {
			return s.ListFavorites(ctx, in)
		}),
		unary("ResolveImages", func(s FeedServiceServer, ctx context.Context, in *ResolveImagesRequest) (interface{}, error) {
			return s.ResolveImages(ctx, in)
		}),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "flyerboard/feed/v1/feed.json",
}

// PublicMethods may be called without a token.
var PublicMethods = map[string]bool{
	FullMethod("ListPage"):       true,
	FullMethod("ListSince"):      true,
	FullMethod("IncrementViews"): true,
	FullMethod("GetListing"):     true,
	FullMethod("ListCategories"): true,
	FullMethod("ResolveImages"):  true,

	"/grpc.health.v1.Health/Check": true,
	"/grpc.health.v1.Health/Watch": true,
}
