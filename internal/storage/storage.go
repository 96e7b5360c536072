package storage

import (
	"context"
	"errors"
	"time"

	"github.com/hongminglow/gigdash/internal/models"
)

// ErrNotFound indicates a record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrAlreadyExists indicates a uniqueness conflict.
var ErrAlreadyExists = errors.New("record already exists")

// ErrConflict indicates the change is not allowed from the record's current state.
var ErrConflict = errors.New("conflicting state")

// UserStore captures persistence operations for user accounts.
type UserStore interface {
	CreateUser(ctx context.Context, user models.User) (models.User, error)
	GetUser(ctx context.Context, id int64) (models.User, error)
	FindByUsername(ctx context.Context, username string) (models.User, error)
	FindByEmail(ctx context.Context, email string) (models.User, error)
	FindByUsernameOrEmail(ctx context.Context, identifier string) (models.User, error)
	FindByProvider(ctx context.Context, provider, subject string) (models.User, error)
	LinkProvider(ctx context.Context, userID int64, provider, subject string) error
	UpdateProfile(ctx context.Context, userID int64, update models.ProfileUpdate) (models.User, error)
	SetRole(ctx context.Context, userID int64, role string) (models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
}

// RoleStore resolves the permission table.
type RoleStore interface {
	PermissionsForRole(ctx context.Context, role string) ([]string, error)
	ListRoles(ctx context.Context) ([]models.Role, error)
}

// CompanyStore manages the gig company catalog.
type CompanyStore interface {
	ListCompanies(ctx context.Context, filter models.CompanyFilter) ([]models.Company, error)
	GetCompany(ctx context.Context, id int64) (models.Company, error)
	CreateCompany(ctx context.Context, company models.Company) (models.Company, error)
	UpdateCompany(ctx context.Context, company models.Company) (models.Company, error)
	DeleteCompany(ctx context.Context, id int64) error
	UpsertCompanyBySlug(ctx context.Context, company models.Company) (models.Company, error)
}

// ApplicationStore manages a worker's job applications. All reads and writes are scoped to userID.
type ApplicationStore interface {
	ListApplications(ctx context.Context, userID int64, status string) ([]models.Application, error)
	GetApplication(ctx context.Context, userID, id int64) (models.Application, error)
	CreateApplication(ctx context.Context, app models.Application) (models.Application, error)
	UpdateApplication(ctx context.Context, app models.Application) (models.Application, error)
	DeleteApplication(ctx context.Context, userID, id int64) error
}

// VehicleStore manages the fleet and attached documents.
type VehicleStore interface {
	ListVehicles(ctx context.Context, userID int64) ([]models.Vehicle, error)
	GetVehicle(ctx context.Context, userID, id int64) (models.Vehicle, error)
	CreateVehicle(ctx context.Context, vehicle models.Vehicle) (models.Vehicle, error)
	UpdateVehicle(ctx context.Context, vehicle models.Vehicle) (models.Vehicle, error)
	DeleteVehicle(ctx context.Context, userID, id int64) error
	VehiclesExpiringBefore(ctx context.Context, cutoff time.Time) ([]models.Vehicle, error)

	ListVehicleDocuments(ctx context.Context, userID, vehicleID int64) ([]models.VehicleDocument, error)
	CreateVehicleDocument(ctx context.Context, doc models.VehicleDocument) (models.VehicleDocument, error)
	GetVehicleDocument(ctx context.Context, userID, vehicleID, id int64) (models.VehicleDocument, error)
	DeleteVehicleDocument(ctx context.Context, userID, vehicleID, id int64) error
}

// CreditStore manages score snapshots and tradelines.
type CreditStore interface {
	ListCreditScores(ctx context.Context, userID int64) ([]models.CreditScore, error)
	CreateCreditScore(ctx context.Context, score models.CreditScore) (models.CreditScore, error)
	DeleteCreditScore(ctx context.Context, userID, id int64) error

	ListTradelines(ctx context.Context, userID int64) ([]models.Tradeline, error)
	GetTradeline(ctx context.Context, userID, id int64) (models.Tradeline, error)
	CreateTradeline(ctx context.Context, tradeline models.Tradeline) (models.Tradeline, error)
	UpdateTradeline(ctx context.Context, tradeline models.Tradeline) (models.Tradeline, error)
	DeleteTradeline(ctx context.Context, userID, id int64) error
}

// AuditStore persists access decisions.
type AuditStore interface {
	WriteAudit(ctx context.Context, entry models.AuditLog) error
	ListAudit(ctx context.Context, filter models.AuditFilter) ([]models.AuditLog, error)
}

// ChatStore keeps GigBot conversation history.
type ChatStore interface {
	AppendChatMessage(ctx context.Context, msg models.ChatMessage) (models.ChatMessage, error)
	ListChatMessages(ctx context.Context, userID int64, limit int) ([]models.ChatMessage, error)
	ClearChat(ctx context.Context, userID int64) error
}

// SessionStore persists login sessions referenced by the session cookie.
type SessionStore interface {
	CreateSession(ctx context.Context, session models.Session) error
	GetSession(ctx context.Context, id string) (models.Session, error)
	DeleteSession(ctx context.Context, id string) error
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}

// Store is the full data-access surface used by the server.
type Store interface {
	UserStore
	RoleStore
	CompanyStore
	ApplicationStore
	VehicleStore
	CreditStore
	AuditStore
	ChatStore
	SessionStore
	Close()
}

// DefaultAuditLimit caps audit listings when the filter leaves Limit unset.
const DefaultAuditLimit = 100
