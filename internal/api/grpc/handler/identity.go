package handler

import (
	"context"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/dtroode/shopkeeper-auth/internal/guard"
	"github.com/dtroode/shopkeeper-auth/internal/logger"
	"github.com/dtroode/shopkeeper-auth/internal/model"
)

// IdentityServiceName is the fully qualified name of the identity service.
const IdentityServiceName = "shopkeeper.auth.v1.Identity"

// UserService loads users for the identity endpoints.
type UserService interface {
	Me(ctx context.Context, userID uuid.UUID) (model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
}

// IdentityServer lets internal services resolve the caller of an access token.
type IdentityServer interface {
	WhoAmI(ctx context.Context, req *emptypb.Empty) (*structpb.Struct, error)
	ListUsers(ctx context.Context, req *emptypb.Empty) (*structpb.Struct, error)
}

// IdentityServiceDesc describes the identity service. Messages are protobuf
// well-known types so no generated code is needed on either side.
var IdentityServiceDesc = grpc.ServiceDesc{
	ServiceName: IdentityServiceName,
	HandlerType: (*IdentityServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "WhoAmI", Handler: whoAmIHandler},
		{MethodName: "ListUsers", Handler: listUsersHandler},
	},
	Metadata: "shopkeeper/auth/v1/identity.proto",
}

// RegisterIdentityServer registers srv on s.
func RegisterIdentityServer(s grpc.ServiceRegistrar, srv IdentityServer) {
	s.RegisterService(&IdentityServiceDesc, srv)
}

func whoAmIHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(IdentityServer).WhoAmI(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + IdentityServiceName + "/WhoAmI"}
	return interceptor(ctx, in, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(IdentityServer).WhoAmI(ctx, req.(*emptypb.Empty))
	})
}

func listUsersHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(IdentityServer).ListUsers(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + IdentityServiceName + "/ListUsers"}
	return interceptor(ctx, in, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(IdentityServer).ListUsers(ctx, req.(*emptypb.Empty))
	})
}

// Identity handles the identity gRPC endpoints.
type Identity struct {
	users          UserService
	contextManager model.ContextManager
	logger         *logger.Logger
}

// NewIdentity creates a new Identity handler.
func NewIdentity(users UserService, contextManager model.ContextManager, logger *logger.Logger) *Identity {
	return &Identity{users: users, contextManager: contextManager, logger: logger}
}

// WhoAmI returns the user the access token was issued to.
func (h *Identity) WhoAmI(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	p, ok := h.contextManager.GetPrincipalFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "unauthorized")
	}

	user, err := h.users.Me(ctx, p.UserID)
	if err != nil {
		h.logger.Error("Identity handler: failed to load user",
			"user_id", p.UserID,
			"error", err.Error())
		return nil, handleError(err)
	}

	out, err := structpb.NewStruct(userFields(user))
	if err != nil {
		return nil, handleError(err)
	}
	return out, nil
}

// ListUsers returns every user. The caller must hold the admin role.
func (h *Identity) ListUsers(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	p, ok := h.contextManager.GetPrincipalFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "unauthorized")
	}
	if err := guard.Role(model.RoleAdmin)(p); err != nil {
		h.logger.Info("Identity handler: list users denied", "user_id", p.UserID)
		return nil, handleError(err)
	}

	users, err := h.users.ListUsers(ctx)
	if err != nil {
		h.logger.Error("Identity handler: failed to list users", "error", err.Error())
		return nil, handleError(err)
	}

	list := make([]interface{}, len(users))
	for i, u := range users {
		list[i] = userFields(u)
	}

	out, err := structpb.NewStruct(map[string]interface{}{"users": list})
	if err != nil {
		return nil, handleError(err)
	}
	return out, nil
}

func userFields(u model.User) map[string]interface{} {
	roles := make([]interface{}, len(u.Roles))
	for i, r := range u.Roles {
		roles[i] = string(r)
	}

	return map[string]interface{}{
		"id":            u.ID.String(),
		"email":         u.Email,
		"username":      u.Username,
		"provider":      string(u.Provider),
		"roles":         roles,
		"profileImage":  u.ProfileImage,
		"emailVerified": u.EmailVerified,
		"createdAt":     u.CreatedAt.UTC().Format(time.RFC3339),
	}
}
