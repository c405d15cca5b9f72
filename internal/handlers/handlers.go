package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"vpnserver/internal/config"
	"vpnserver/internal/middleware"
	"vpnserver/internal/models"
	"vpnserver/internal/service"
	"vpnserver/internal/status"
)

type ConnectionRecorder interface {
	Connect(ctx context.Context, input service.ConnectInput) (service.ConnectResult, error)
	Disconnect(ctx context.Context, input service.DisconnectInput) error
}

type MessageStore interface {
	SystemMessages(ctx context.Context, messageType models.MessageType) ([]models.SystemMessage, error)
	AddSystemMessage(ctx context.Context, messageType models.MessageType, message string) (int64, error)
	DeleteSystemMessage(ctx context.Context, id int64) error
	UserMessages(ctx context.Context, userID string) ([]models.UserMessage, error)
}

type UserStore interface {
	IsDisabled(ctx context.Context, userID string) (bool, error)
	Disable(ctx context.Context, userID string) error
	Enable(ctx context.Context, userID string) error
	PermissionList(ctx context.Context, userID string) ([]string, error)
	GroupList(ctx context.Context) ([]string, error)
}

type CertificateStore interface {
	UserCertificateInfo(ctx context.Context, commonName string) (models.CertificateInfo, error)
}

type ConnectionLog interface {
	LogAt(ctx context.Context, at time.Time, ipAddress string) ([]models.ConnectionLogEntry, error)
}

// ClientManager disconnects clients through the OpenVPN management
// interfaces.
type ClientManager interface {
	KillClient(ctx context.Context, commonName string) (int, error)
}

type StatusReporter interface {
	Report(ctx context.Context) ([]status.ProfileStatus, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

// PingerFunc adapts a health probe such as a redis PING.
type PingerFunc func(ctx context.Context) error

func (f PingerFunc) Ping(ctx context.Context) error { return f(ctx) }

// Dependencies are the collaborators the route table is built from. Cache
// may be nil when the api runs without a task queue.
type Dependencies struct {
	Connections   ConnectionRecorder
	Messages      MessageStore
	Users         UserStore
	Certificates  CertificateStore
	Open          status.OpenConnectionLister
	ConnectionLog ConnectionLog
	Clients       ClientManager
	Status        StatusReporter
	Database      Pinger
	Cache         Pinger
}

type HandlerSet struct {
	log           zerolog.Logger
	cfg           *config.AppConfig
	profiles      *config.Profiles
	connections   ConnectionRecorder
	messages      MessageStore
	users         UserStore
	certificates  CertificateStore
	open          status.OpenConnectionLister
	connectionLog ConnectionLog
	clients       ClientManager
	status        StatusReporter
	db            Pinger
	cache         Pinger
	healthWait    time.Duration
}

func NewHandlerSet(log zerolog.Logger, cfg *config.AppConfig, deps Dependencies) HandlerSet {
	return HandlerSet{
		log:           log,
		cfg:           cfg,
		profiles:      cfg.Profiles(),
		connections:   deps.Connections,
		messages:      deps.Messages,
		users:         deps.Users,
		certificates:  deps.Certificates,
		open:          deps.Open,
		connectionLog: deps.ConnectionLog,
		clients:       deps.Clients,
		status:        deps.Status,
		db:            deps.Database,
		cache:         deps.Cache,
		healthWait:    2 * time.Second,
	}
}

func (h HandlerSet) Register(router *gin.RouterGroup) {
	router.GET("/healthz", h.Health)

	v1 := router.Group("/v1")
	v1.Use(middleware.Authenticate(h.cfg.Security))

	node := v1.Group("")
	node.Use(middleware.RequirePrincipals(middleware.PrincipalServerNode))
	node.POST("/connect", h.Connect)
	node.POST("/disconnect", h.Disconnect)

	portal := v1.Group("")
	portal.Use(middleware.RequirePrincipals(middleware.PrincipalUserPortal))
	portal.GET("/system_messages", h.SystemMessages)
	portal.POST("/add_system_message", h.AddSystemMessage)
	portal.POST("/delete_system_message", h.DeleteSystemMessage)
	portal.GET("/user_messages", h.UserMessages)
	portal.POST("/disable_user", h.DisableUser)
	portal.POST("/enable_user", h.EnableUser)
	portal.GET("/is_disabled_user", h.IsDisabledUser)
	portal.GET("/user_permission_list", h.UserPermissionList)
	portal.GET("/group_list", h.GroupList)
	portal.GET("/user_certificate_info", h.UserCertificateInfo)
	portal.GET("/client_connections", h.ClientConnections)
	portal.POST("/kill_client", h.KillClient)
	portal.GET("/log", h.Log)
	portal.GET("/profile_list", h.ProfileList)
	portal.GET("/status", h.Status)
}
