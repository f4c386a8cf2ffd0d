// Package grpc содержит реализацию gRPC сервера сервиса коротких ссылок
package grpc

import (
	"context"
	"errors"
	"net"
	"strconv"

	"github.com/tempizhere/linkcut/internal/grpc/proto"
	"github.com/tempizhere/linkcut/internal/repository"
	"github.com/tempizhere/linkcut/internal/service"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

// Server реализует gRPC сервер сервиса коротких ссылок
type Server struct {
	proto.UnimplementedLinkCutServiceServer
	svc    *service.Service
	db     repository.Database
	logger *zap.Logger
}

// NewServer создаёт новый gRPC сервер
func NewServer(svc *service.Service, db repository.Database, logger *zap.Logger) *Server {
	return &Server{
		svc:    svc,
		db:     db,
		logger: logger,
	}
}

// CreateLink обрабатывает создание короткой ссылки
func (s *Server) CreateLink(ctx context.Context, req *proto.CreateLinkRequest) (*proto.CreateLinkResponse, error) {
	if req.LongURL == "" {
		return nil, status.Error(codes.InvalidArgument, "long URL is required")
	}

	userID, err := getUserIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	result, err := s.svc.CreateLink(ctx, req.LongURL, userID)
	if err != nil {
		return nil, s.mapError(err)
	}

	return &proto.CreateLinkResponse{
		Slug:          result.Slug,
		ShortURL:      s.svc.ShortURL(result.Slug),
		CreatedBefore: result.CreatedBefore,
	}, nil
}

// ResolveLink обрабатывает разрешение короткой ссылки
func (s *Server) ResolveLink(ctx context.Context, req *proto.ResolveLinkRequest) (*proto.ResolveLinkResponse, error) {
	if req.Slug == "" {
		return nil, status.Error(codes.InvalidArgument, "slug is required")
	}

	longURL, err := s.svc.ResolveLink(ctx, req.Slug, req.Password, actorFromContext(ctx), clientIPFromContext(ctx))
	if err != nil {
		return nil, s.mapError(err)
	}

	return &proto.ResolveLinkResponse{LongURL: longURL}, nil
}

// SetExpiration устанавливает срок действия ссылки
func (s *Server) SetExpiration(ctx context.Context, req *proto.SetExpirationRequest) (*proto.SetExpirationResponse, error) {
	if req.Slug == "" {
		return nil, status.Error(codes.InvalidArgument, "slug is required")
	}

	if err := s.svc.SetExpiration(req.Slug, req.ExpirationDate, req.Timezone); err != nil {
		return nil, s.mapError(err)
	}
	return &proto.SetExpirationResponse{}, nil
}

// RemoveExpiration снимает срок действия ссылки
func (s *Server) RemoveExpiration(ctx context.Context, req *proto.RemoveExpirationRequest) (*proto.RemoveExpirationResponse, error) {
	if req.Slug == "" {
		return nil, status.Error(codes.InvalidArgument, "slug is required")
	}

	if err := s.svc.RemoveExpiration(req.Slug); err != nil {
		return nil, s.mapError(err)
	}
	return &proto.RemoveExpirationResponse{}, nil
}

// CustomizeSlug заменяет слаг ссылки на пользовательский
func (s *Server) CustomizeSlug(ctx context.Context, req *proto.CustomizeSlugRequest) (*proto.CustomizeSlugResponse, error) {
	if req.Slug == "" || req.NewSlug == "" {
		return nil, status.Error(codes.InvalidArgument, "slug and new slug are required")
	}

	userID, err := getUserIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.svc.CustomizeSlug(req.Slug, req.NewSlug, userID); err != nil {
		return nil, s.mapError(err)
	}

	return &proto.CustomizeSlugResponse{
		Slug:     req.NewSlug,
		ShortURL: s.svc.ShortURL(req.NewSlug),
	}, nil
}

// SetPassword устанавливает пароль на ссылку
func (s *Server) SetPassword(ctx context.Context, req *proto.SetPasswordRequest) (*proto.SetPasswordResponse, error) {
	if req.Slug == "" || req.Password == "" {
		return nil, status.Error(codes.InvalidArgument, "slug and password are required")
	}

	userID, err := getUserIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.svc.SetPassword(req.Slug, userID, req.Password); err != nil {
		return nil, s.mapError(err)
	}
	return &proto.SetPasswordResponse{}, nil
}

// RemovePassword снимает пароль со ссылки
func (s *Server) RemovePassword(ctx context.Context, req *proto.RemovePasswordRequest) (*proto.RemovePasswordResponse, error) {
	if req.Slug == "" {
		return nil, status.Error(codes.InvalidArgument, "slug is required")
	}

	userID, err := getUserIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.svc.RemovePassword(req.Slug, userID); err != nil {
		return nil, s.mapError(err)
	}
	return &proto.RemovePasswordResponse{}, nil
}

// DeleteLink удаляет ссылку вместе с историей переходов
func (s *Server) DeleteLink(ctx context.Context, req *proto.DeleteLinkRequest) (*proto.DeleteLinkResponse, error) {
	if req.Slug == "" {
		return nil, status.Error(codes.InvalidArgument, "slug is required")
	}

	userID, err := getUserIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.svc.DeleteLink(req.Slug, userID); err != nil {
		return nil, s.mapError(err)
	}
	return &proto.DeleteLinkResponse{}, nil
}

// GetHistory возвращает историю переходов по слагу
func (s *Server) GetHistory(ctx context.Context, req *proto.GetHistoryRequest) (*proto.GetHistoryResponse, error) {
	if req.Slug == "" {
		return nil, status.Error(codes.InvalidArgument, "slug is required")
	}

	events, err := s.svc.ListRedirectHistory(req.Slug, req.Timezone)
	if err != nil {
		if errors.Is(err, service.ErrNoHistory) {
			return &proto.GetHistoryResponse{Events: []*proto.RedirectEvent{}}, nil
		}
		return nil, s.mapError(err)
	}

	protoEvents := make([]*proto.RedirectEvent, len(events))
	for i, e := range events {
		protoEvents[i] = &proto.RedirectEvent{
			Slug:            e.Slug,
			LongURL:         e.LongURL,
			CreatedBy:       e.CreatedBy,
			LocationCity:    e.LocationCity,
			LocationCountry: e.LocationCountry,
			Time:            e.Time,
		}
	}

	return &proto.GetHistoryResponse{Events: protoEvents}, nil
}

// GetUserLinks возвращает все ссылки пользователя
func (s *Server) GetUserLinks(ctx context.Context, req *proto.GetUserLinksRequest) (*proto.GetUserLinksResponse, error) {
	userID, err := getUserIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	links, err := s.svc.ListUserLinks(userID, req.Timezone)
	if err != nil {
		return nil, s.mapError(err)
	}

	protoLinks := make([]*proto.Link, len(links))
	for i, l := range links {
		protoLinks[i] = &proto.Link{
			Slug:           l.Slug,
			ShortURL:       l.ShortURL,
			LongURL:        l.LongURL,
			IsPrivate:      l.IsPrivate,
			IsProtected:    l.IsProtected,
			ExpirationDate: l.ExpirationDate,
			HopCounts:      l.HopCounts,
		}
	}

	return &proto.GetUserLinksResponse{Links: protoLinks}, nil
}

// GetStats возвращает статистику сервиса
func (s *Server) GetStats(ctx context.Context, req *proto.GetStatsRequest) (*proto.GetStatsResponse, error) {
	stats, err := s.svc.Stats()
	if err != nil {
		s.logger.Error("Failed to get stats", zap.Error(err))
		return nil, status.Error(codes.Internal, "failed to get statistics")
	}

	return &proto.GetStatsResponse{
		LinksCount:     stats.Links,
		RedirectsCount: stats.Redirects,
	}, nil
}

// Ping проверяет состояние сервиса
func (s *Server) Ping(ctx context.Context, req *proto.PingRequest) (*proto.PingResponse, error) {
	if s.db == nil {
		return &proto.PingResponse{DatabaseAvailable: false}, nil
	}

	err := s.db.Ping()
	return &proto.PingResponse{
		DatabaseAvailable: err == nil,
	}, nil
}

// getUserIDFromContext извлекает идентификатор пользователя из контекста
func getUserIDFromContext(ctx context.Context) (int64, error) {
	if userID, ok := ctx.Value(userIDKey).(int64); ok {
		return userID, nil
	}
	return 0, status.Error(codes.Unauthenticated, "user not authenticated")
}

// actorFromContext возвращает метку инициатора перехода для истории
func actorFromContext(ctx context.Context) string {
	if userID, ok := ctx.Value(userIDKey).(int64); ok && userID != 0 {
		return "user:" + strconv.FormatInt(userID, 10)
	}
	return ""
}

// clientIPFromContext возвращает IP-адрес вызывающей стороны
func clientIPFromContext(ctx context.Context) string {
	p, ok := peer.FromContext(ctx)
	if !ok {
		return ""
	}
	host, _, err := net.SplitHostPort(p.Addr.String())
	if err != nil {
		return p.Addr.String()
	}
	return host
}

// mapError преобразует ошибки движка в gRPC статусы
func (s *Server) mapError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, repository.ErrLinkNotFound):
		return status.Error(codes.NotFound, "link not found")
	case errors.Is(err, repository.ErrLinkExpired):
		return status.Error(codes.FailedPrecondition, "link expired")
	case errors.Is(err, repository.ErrLinkProtected):
		return status.Error(codes.PermissionDenied, "link is password protected")
	case errors.Is(err, repository.ErrSlugExists):
		return status.Error(codes.AlreadyExists, "slug already exists")
	case errors.Is(err, service.ErrForbidden):
		return status.Error(codes.PermissionDenied, "access denied")
	case errors.Is(err, service.ErrEmptyURL),
		errors.Is(err, service.ErrInvalidSlugFormat),
		errors.Is(err, service.ErrExpirationInPast):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, service.ErrSlugExhausted):
		return status.Error(codes.ResourceExhausted, "failed to allocate unique slug")
	default:
		s.logger.Error("Unexpected error", zap.Error(err))
		return status.Error(codes.Internal, "internal server error")
	}
}
