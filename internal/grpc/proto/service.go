// Package proto содержит интерфейс gRPC сервиса коротких ссылок
package proto

import (
	"context"

	"google.golang.org/grpc"
)

// LinkCutServiceServer представляет интерфейс gRPC сервиса
type LinkCutServiceServer interface {
	CreateLink(ctx context.Context, req *CreateLinkRequest) (*CreateLinkResponse, error)
	ResolveLink(ctx context.Context, req *ResolveLinkRequest) (*ResolveLinkResponse, error)
	SetExpiration(ctx context.Context, req *SetExpirationRequest) (*SetExpirationResponse, error)
	RemoveExpiration(ctx context.Context, req *RemoveExpirationRequest) (*RemoveExpirationResponse, error)
	CustomizeSlug(ctx context.Context, req *CustomizeSlugRequest) (*CustomizeSlugResponse, error)
	SetPassword(ctx context.Context, req *SetPasswordRequest) (*SetPasswordResponse, error)
	RemovePassword(ctx context.Context, req *RemovePasswordRequest) (*RemovePasswordResponse, error)
	DeleteLink(ctx context.Context, req *DeleteLinkRequest) (*DeleteLinkResponse, error)
	GetHistory(ctx context.Context, req *GetHistoryRequest) (*GetHistoryResponse, error)
	GetUserLinks(ctx context.Context, req *GetUserLinksRequest) (*GetUserLinksResponse, error)
	GetStats(ctx context.Context, req *GetStatsRequest) (*GetStatsResponse, error)
	Ping(ctx context.Context, req *PingRequest) (*PingResponse, error)
}

// UnimplementedLinkCutServiceServer предоставляет базовую реализацию интерфейса
type UnimplementedLinkCutServiceServer struct{}

// CreateLink предоставляет базовую реализацию создания короткой ссылки
func (UnimplementedLinkCutServiceServer) CreateLink(ctx context.Context, req *CreateLinkRequest) (*CreateLinkResponse, error) {
	return nil, nil
}

// ResolveLink предоставляет базовую реализацию разрешения короткой ссылки
func (UnimplementedLinkCutServiceServer) ResolveLink(ctx context.Context, req *ResolveLinkRequest) (*ResolveLinkResponse, error) {
	return nil, nil
}

// SetExpiration предоставляет базовую реализацию установки срока действия
func (UnimplementedLinkCutServiceServer) SetExpiration(ctx context.Context, req *SetExpirationRequest) (*SetExpirationResponse, error) {
	return nil, nil
}

// RemoveExpiration предоставляет базовую реализацию снятия срока действия
func (UnimplementedLinkCutServiceServer) RemoveExpiration(ctx context.Context, req *RemoveExpirationRequest) (*RemoveExpirationResponse, error) {
	return nil, nil
}

// CustomizeSlug предоставляет базовую реализацию замены слага
func (UnimplementedLinkCutServiceServer) CustomizeSlug(ctx context.Context, req *CustomizeSlugRequest) (*CustomizeSlugResponse, error) {
	return nil, nil
}

// SetPassword предоставляет базовую реализацию установки пароля
func (UnimplementedLinkCutServiceServer) SetPassword(ctx context.Context, req *SetPasswordRequest) (*SetPasswordResponse, error) {
	return nil, nil
}

// RemovePassword предоставляет базовую реализацию снятия пароля
func (UnimplementedLinkCutServiceServer) RemovePassword(ctx context.Context, req *RemovePasswordRequest) (*RemovePasswordResponse, error) {
	return nil, nil
}

// DeleteLink предоставляет базовую реализацию удаления ссылки
func (UnimplementedLinkCutServiceServer) DeleteLink(ctx context.Context, req *DeleteLinkRequest) (*DeleteLinkResponse, error) {
	return nil, nil
}

// GetHistory предоставляет базовую реализацию получения истории переходов
func (UnimplementedLinkCutServiceServer) GetHistory(ctx context.Context, req *GetHistoryRequest) (*GetHistoryResponse, error) {
	return nil, nil
}

// GetUserLinks предоставляет базовую реализацию получения ссылок пользователя
func (UnimplementedLinkCutServiceServer) GetUserLinks(ctx context.Context, req *GetUserLinksRequest) (*GetUserLinksResponse, error) {
	return nil, nil
}

// GetStats предоставляет базовую реализацию получения статистики сервиса
func (UnimplementedLinkCutServiceServer) GetStats(ctx context.Context, req *GetStatsRequest) (*GetStatsResponse, error) {
	return nil, nil
}

// Ping предоставляет базовую реализацию проверки состояния сервиса
func (UnimplementedLinkCutServiceServer) Ping(ctx context.Context, req *PingRequest) (*PingResponse, error) {
	return nil, nil
}

// RegisterLinkCutServiceServer регистрирует реализацию сервиса в gRPC сервере
func RegisterLinkCutServiceServer(s *grpc.Server, srv LinkCutServiceServer) {
	// В реальном проекте это было бы автоматически сгенерировано protoc
	// Здесь заглушка для демонстрации
}
