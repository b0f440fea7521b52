// Package models defines the core data structures used across SalonPulse.
package models

import (
	"time"

	"github.com/google/uuid"
)

// SubscriptionTier identifies a tenant's plan level.
type SubscriptionTier string

const (
	TierStarter      SubscriptionTier = "starter"
	TierProfessional SubscriptionTier = "professional"
	TierEnterprise   SubscriptionTier = "enterprise"
)

// SubscriptionStatus tracks the billing state of a tenant.
type SubscriptionStatus string

const (
	SubscriptionTrial     SubscriptionStatus = "trial"
	SubscriptionActive    SubscriptionStatus = "active"
	SubscriptionSuspended SubscriptionStatus = "suspended"
	SubscriptionCancelled SubscriptionStatus = "cancelled"
)

// Tenant represents a salon account. Each tenant owns an isolated
// PostgreSQL schema holding its operational data.
type Tenant struct {
	TenantID           uuid.UUID          `json:"tenant_id" db:"tenant_id"`
	SalonName          string             `json:"salon_name" db:"salon_name"`
	OwnerEmail         string             `json:"owner_email" db:"owner_email"`
	SubscriptionTier   SubscriptionTier   `json:"subscription_tier" db:"subscription_tier"`
	SubscriptionStatus SubscriptionStatus `json:"subscription_status" db:"subscription_status"`
	TrialEndsAt        *time.Time         `json:"trial_ends_at,omitempty" db:"trial_ends_at"`
	Settings           map[string]any     `json:"settings,omitempty" db:"settings"`
	POSIntegrated      bool               `json:"pos_integrated" db:"pos_integrated"`
	POSType            string             `json:"pos_type,omitempty" db:"pos_type"`
	LastSyncAt         *time.Time         `json:"last_sync_at,omitempty" db:"last_sync_at"`
	IsActive           bool               `json:"is_active" db:"is_active"`
	QueryCount         int64              `json:"query_count" db:"query_count"`
	MonthlyQueryLimit  int64              `json:"monthly_query_limit" db:"monthly_query_limit"`
	CreatedAt          time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at" db:"updated_at"`
}

// Role defines a user's permission level within a tenant.
type Role string

const (
	RoleUser    Role = "user"
	RoleManager Role = "manager"
	RoleAdmin   Role = "admin"
	RoleOwner   Role = "owner"
)

// Rank returns the role's position in the permission hierarchy.
// Higher ranks include all permissions of lower ranks.
func (r Role) Rank() int {
	switch r {
	case RoleUser:
		return 1
	case RoleManager:
		return 2
	case RoleAdmin:
		return 3
	case RoleOwner:
		return 4
	default:
		return 0
	}
}

// User is an account belonging to a tenant.
type User struct {
	UserID         uuid.UUID  `json:"user_id" db:"user_id"`
	TenantID       uuid.UUID  `json:"tenant_id" db:"tenant_id"`
	Email          string     `json:"email" db:"email"`
	HashedPassword string     `json:"-" db:"hashed_password"`
	FullName       string     `json:"full_name" db:"full_name"`
	Role           Role       `json:"role" db:"role"`
	IsActive       bool       `json:"is_active" db:"is_active"`
	IsVerified     bool       `json:"is_verified" db:"is_verified"`
	LastLogin      *time.Time `json:"last_login,omitempty" db:"last_login"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at" db:"updated_at"`
}

// QueryRecord tracks a natural language query, its generated SQL, and feedback.
type QueryRecord struct {
	QueryID         uuid.UUID  `json:"query_id" db:"query_id"`
	TenantID        uuid.UUID  `json:"tenant_id" db:"tenant_id"`
	UserID          *uuid.UUID `json:"user_id,omitempty" db:"user_id"`
	Question        string     `json:"question" db:"question"`
	GeneratedSQL    string     `json:"generated_sql" db:"generated_sql"`
	WasExecuted     bool       `json:"was_executed" db:"was_executed"`
	ExecutionTimeMs *float64   `json:"execution_time_ms,omitempty" db:"execution_time_ms"`
	RowCount        *int       `json:"row_count,omitempty" db:"row_count"`
	ErrorMessage    string     `json:"error_message,omitempty" db:"error_message"`
	UserRating      *int       `json:"user_rating,omitempty" db:"user_rating"`
	UserFeedback    string     `json:"user_feedback,omitempty" db:"user_feedback"`
	WasHelpful      *bool      `json:"was_helpful,omitempty" db:"was_helpful"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
}

// TrainingKind identifies the category of an NL-to-SQL training item.
type TrainingKind string

const (
	TrainingDDL           TrainingKind = "ddl"
	TrainingQuestionSQL   TrainingKind = "question_sql"
	TrainingDocumentation TrainingKind = "documentation"
)

// TrainingItem is one unit of tenant-scoped NL-to-SQL training data.
type TrainingItem struct {
	ID        int64        `json:"id" db:"id"`
	TenantID  uuid.UUID    `json:"tenant_id" db:"tenant_id"`
	Kind      TrainingKind `json:"kind" db:"kind"`
	Question  string       `json:"question,omitempty" db:"question"`
	Content   string       `json:"content" db:"content"`
	CreatedAt time.Time    `json:"created_at" db:"created_at"`
}

// InsightType categorizes the kind of insight generated.
type InsightType string

const (
	InsightLowInventory      InsightType = "low_inventory"
	InsightBookingTrend      InsightType = "booking_trend"
	InsightRevenueAnomaly    InsightType = "revenue_anomaly"
	InsightChurnRisk         InsightType = "churn_risk"
	InsightPeakHours         InsightType = "peak_hours"
	InsightStaffPerformance  InsightType = "staff_performance"
	InsightNoShowRate        InsightType = "no_show_rate"
	InsightServicePopularity InsightType = "service_popularity"
)

// Severity indicates the urgency of an insight.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// InsightStatus is the lifecycle state of an insight.
type InsightStatus string

const (
	InsightNew          InsightStatus = "new"
	InsightViewed       InsightStatus = "viewed"
	InsightAcknowledged InsightStatus = "acknowledged"
	InsightResolved     InsightStatus = "resolved"
	InsightDismissed    InsightStatus = "dismissed"
)

// Insight represents an automatically detected condition in a salon's data.
type Insight struct {
	InsightID        uuid.UUID      `json:"insight_id" db:"insight_id"`
	TenantID         uuid.UUID      `json:"tenant_id" db:"tenant_id"`
	Type             InsightType    `json:"type" db:"type"`
	Severity         Severity       `json:"severity" db:"severity"`
	Status           InsightStatus  `json:"status" db:"status"`
	Title            string         `json:"title" db:"title"`
	Description      string         `json:"description" db:"description"`
	Recommendation   string         `json:"recommendation,omitempty" db:"recommendation"`
	Metrics          map[string]any `json:"metrics,omitempty" db:"metrics"`
	AffectedEntities map[string]any `json:"affected_entities,omitempty" db:"affected_entities"`
	CurrentValue     *float64       `json:"current_value,omitempty" db:"current_value"`
	PreviousValue    *float64       `json:"previous_value,omitempty" db:"previous_value"`
	ChangePercent    *float64       `json:"change_percent,omitempty" db:"change_percent"`
	GeneratedAt      time.Time      `json:"generated_at" db:"generated_at"`
	ViewedAt         *time.Time     `json:"viewed_at,omitempty" db:"viewed_at"`
	ResolvedAt       *time.Time     `json:"resolved_at,omitempty" db:"resolved_at"`
	DataSource       string         `json:"data_source,omitempty" db:"data_source"`
	ConfidenceScore  *float64       `json:"confidence_score,omitempty" db:"confidence_score"`
}

// PredictionType identifies what a stored prediction forecasts.
type PredictionType string

const (
	PredictRevenue       PredictionType = "revenue"
	PredictBookingDemand PredictionType = "booking_demand"
	PredictChurnRisk     PredictionType = "churn_risk"
	PredictServiceTrend  PredictionType = "service_trend"
	PredictCapacity      PredictionType = "capacity"
	PredictCLV           PredictionType = "customer_lifetime_value"
)

// ModelType identifies the algorithm that produced a prediction.
type ModelType string

const (
	ModelSeasonal         ModelType = "seasonal"
	ModelRandomForest     ModelType = "random_forest"
	ModelLinearRegression ModelType = "linear_regression"
	ModelGradientBoosting ModelType = "gradient_boosting"
	ModelMovingAverage    ModelType = "moving_average"
	ModelRuleBased        ModelType = "rule_based"
	ModelWeightedRFM      ModelType = "weighted_rfm"
)

// Prediction is a stored forecast result. PredictedValue is schemaless JSON
// because different prediction types carry different payloads.
type Prediction struct {
	ID                 int64          `json:"id" db:"id"`
	TenantID           uuid.UUID      `json:"tenant_id" db:"tenant_id"`
	PredictionType     PredictionType `json:"prediction_type" db:"prediction_type"`
	ModelType          ModelType      `json:"model_type" db:"model_type"`
	TargetDate         *time.Time     `json:"target_date,omitempty" db:"target_date"`
	TargetEntityID     *int64         `json:"target_entity_id,omitempty" db:"target_entity_id"`
	PredictedValue     map[string]any `json:"predicted_value" db:"predicted_value"`
	ConfidenceInterval map[string]any `json:"confidence_interval,omitempty" db:"confidence_interval"`
	ConfidenceScore    *float64       `json:"confidence_score,omitempty" db:"confidence_score"`
	ExtraData          map[string]any `json:"extra_data,omitempty" db:"extra_data"`
	CreatedAt          time.Time      `json:"created_at" db:"created_at"`
	ValidUntil         *time.Time     `json:"valid_until,omitempty" db:"valid_until"`
}

// MLModel records a trained model version and its performance.
type MLModel struct {
	ID                 int64          `json:"id" db:"id"`
	TenantID           uuid.UUID      `json:"tenant_id" db:"tenant_id"`
	ModelType          ModelType      `json:"model_type" db:"model_type"`
	PredictionType     PredictionType `json:"prediction_type" db:"prediction_type"`
	Version            string         `json:"version" db:"version"`
	PerformanceMetrics map[string]any `json:"performance_metrics,omitempty" db:"performance_metrics"`
	FeatureImportance  map[string]any `json:"feature_importance,omitempty" db:"feature_importance"`
	TrainingSamples    *int           `json:"training_samples,omitempty" db:"training_samples"`
	IsActive           bool           `json:"is_active" db:"is_active"`
	TrainedAt          time.Time      `json:"trained_at" db:"trained_at"`
	LastUsedAt         *time.Time     `json:"last_used_at,omitempty" db:"last_used_at"`
	TrainingConfig     map[string]any `json:"training_config,omitempty" db:"training_config"`
}

// PredictionFeedback records the actual outcome observed for a prediction.
type PredictionFeedback struct {
	ID              int64          `json:"id" db:"id"`
	PredictionID    int64          `json:"prediction_id" db:"prediction_id"`
	ActualValue     map[string]any `json:"actual_value" db:"actual_value"`
	Error           *float64       `json:"error,omitempty" db:"error"`
	ErrorPercentage *float64       `json:"error_percentage,omitempty" db:"error_percentage"`
	RecordedAt      time.Time      `json:"recorded_at" db:"recorded_at"`
}

// RecommendationType categorizes a business recommendation.
type RecommendationType string

const (
	RecPromotion       RecommendationType = "promotion"
	RecScheduling      RecommendationType = "scheduling"
	RecRetention       RecommendationType = "retention"
	RecInventory       RecommendationType = "inventory"
	RecPricing         RecommendationType = "pricing"
	RecServiceBundling RecommendationType = "service_bundling"
)

// RecommendationPriority indicates how urgently action is needed.
type RecommendationPriority string

const (
	PriorityCritical RecommendationPriority = "critical"
	PriorityHigh     RecommendationPriority = "high"
	PriorityMedium   RecommendationPriority = "medium"
	PriorityLow      RecommendationPriority = "low"
)

// Rank orders priorities for sorting, highest urgency first.
func (p RecommendationPriority) Rank() int {
	switch p {
	case PriorityCritical:
		return 4
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}

// RecommendationStatus is the lifecycle state of a recommendation.
type RecommendationStatus string

const (
	RecActive    RecommendationStatus = "active"
	RecAccepted  RecommendationStatus = "accepted"
	RecRejected  RecommendationStatus = "rejected"
	RecCompleted RecommendationStatus = "completed"
	RecExpired   RecommendationStatus = "expired"
)

// Recommendation is an AI-generated business recommendation.
type Recommendation struct {
	ID                 int64                  `json:"id" db:"id"`
	TenantID           uuid.UUID              `json:"tenant_id" db:"tenant_id"`
	Type               RecommendationType     `json:"type" db:"type"`
	Priority           RecommendationPriority `json:"priority" db:"priority"`
	Status             RecommendationStatus   `json:"status" db:"status"`
	Title              string                 `json:"title" db:"title"`
	Description        string                 `json:"description" db:"description"`
	Reasoning          map[string]any         `json:"reasoning" db:"reasoning"`
	ActionItems        []string               `json:"action_items" db:"action_items"`
	ExpectedImpact     map[string]any         `json:"expected_impact,omitempty" db:"expected_impact"`
	DataSources        []string               `json:"data_sources,omitempty" db:"data_sources"`
	ConfidenceScore    *float64               `json:"confidence_score,omitempty" db:"confidence_score"`
	CreatedAt          time.Time              `json:"created_at" db:"created_at"`
	ExpiresAt          *time.Time             `json:"expires_at,omitempty" db:"expires_at"`
	ActedOnAt          *time.Time             `json:"acted_on_at,omitempty" db:"acted_on_at"`
	UserFeedback       map[string]any         `json:"user_feedback,omitempty" db:"user_feedback"`
	EffectivenessScore *float64               `json:"effectiveness_score,omitempty" db:"effectiveness_score"`
}

// RecommendationTemplate drives rule-based recommendation generation.
type RecommendationTemplate struct {
	ID                  int64                  `json:"id" db:"id"`
	Type                RecommendationType     `json:"type" db:"type"`
	Name                string                 `json:"name" db:"name"`
	TitleTemplate       string                 `json:"title_template" db:"title_template"`
	DescriptionTemplate string                 `json:"description_template" db:"description_template"`
	TriggerConditions   map[string]any         `json:"trigger_conditions" db:"trigger_conditions"`
	DataRequirements    []string               `json:"data_requirements" db:"data_requirements"`
	PriorityDefault     RecommendationPriority `json:"priority_default" db:"priority_default"`
	IsActive            bool                   `json:"is_active" db:"is_active"`
	CreatedAt           time.Time              `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time              `json:"updated_at" db:"updated_at"`
}

// RecommendationMetrics tracks how a recommendation performed after the fact.
type RecommendationMetrics struct {
	ID               int64          `json:"id" db:"id"`
	RecommendationID int64          `json:"recommendation_id" db:"recommendation_id"`
	TenantID         uuid.UUID      `json:"tenant_id" db:"tenant_id"`
	PredictedImpact  map[string]any `json:"predicted_impact" db:"predicted_impact"`
	ActualImpact     map[string]any `json:"actual_impact,omitempty" db:"actual_impact"`
	AcceptanceRate   *float64       `json:"acceptance_rate,omitempty" db:"acceptance_rate"`
	CompletionRate   *float64       `json:"completion_rate,omitempty" db:"completion_rate"`
	ROI              *float64       `json:"roi,omitempty" db:"roi"`
	TimeToActionHrs  *int           `json:"time_to_action,omitempty" db:"time_to_action"`
	MeasuredAt       *time.Time     `json:"measured_at,omitempty" db:"measured_at"`
	CreatedAt        time.Time      `json:"created_at" db:"created_at"`
}

// IntegrationStatus tracks the health of a POS integration.
type IntegrationStatus string

const (
	IntegrationPending  IntegrationStatus = "pending"
	IntegrationActive   IntegrationStatus = "active"
	IntegrationError    IntegrationStatus = "error"
	IntegrationDisabled IntegrationStatus = "disabled"
)

// Integration stores a tenant's POS integration configuration.
// Credentials are stored as opaque JSON and never returned by default.
type Integration struct {
	IntegrationID   uuid.UUID         `json:"integration_id" db:"integration_id"`
	TenantID        uuid.UUID         `json:"tenant_id" db:"tenant_id"`
	IntegrationType string            `json:"integration_type" db:"integration_type"`
	IntegrationName string            `json:"integration_name" db:"integration_name"`
	Credentials     map[string]any    `json:"-" db:"credentials"`
	Config          map[string]any    `json:"config,omitempty" db:"config"`
	SchemaMapping   map[string]any    `json:"schema_mapping,omitempty" db:"schema_mapping"`
	IsActive        bool              `json:"is_active" db:"is_active"`
	Status          IntegrationStatus `json:"status" db:"status"`
	LastError       string            `json:"last_error,omitempty" db:"last_error"`
	LastSyncAt      *time.Time        `json:"last_sync_at,omitempty" db:"last_sync_at"`
	NextSyncAt      *time.Time        `json:"next_sync_at,omitempty" db:"next_sync_at"`
	SyncFrequencyM  int               `json:"sync_frequency_minutes" db:"sync_frequency_minutes"`
	CreatedAt       time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at" db:"updated_at"`
}
