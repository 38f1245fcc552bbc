package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"cv-match-go/internal/config"
	"cv-match-go/internal/constants"
	"cv-match-go/internal/storage/models"
	"cv-match-go/internal/tracing"

	"github.com/gofrs/uuid/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

var mysqlTracer = otel.Tracer("cv-match-go/storage/mysql")

// GormTracingPlugin 是一个GORM插件，用于向OpenTelemetry中添加数据库操作的追踪点
type GormTracingPlugin struct {
	tracer         trace.Tracer
	dbName         string
	dbSystem       string
	disableErrSkip bool
}

// Name 返回插件名称
func (p *GormTracingPlugin) Name() string {
	return "GormOpenTelemetryPlugin"
}

// Initialize 注册GORM回调以启用追踪
func (p *GormTracingPlugin) Initialize(db *gorm.DB) error {
	cb := db.Callback()

	if err := cb.Create().Before("gorm:create").Register("otel:before_create", p.before("CREATE")); err != nil {
		return err
	}
	if err := cb.Create().After("gorm:create").Register("otel:after_create", p.after()); err != nil {
		return err
	}

	if err := cb.Query().Before("gorm:query").Register("otel:before_query", p.before("SELECT")); err != nil {
		return err
	}
	if err := cb.Query().After("gorm:query").Register("otel:after_query", p.after()); err != nil {
		return err
	}

	if err := cb.Update().Before("gorm:update").Register("otel:before_update", p.before("UPDATE")); err != nil {
		return err
	}
	if err := cb.Update().After("gorm:update").Register("otel:after_update", p.after()); err != nil {
		return err
	}

	if err := cb.Delete().Before("gorm:delete").Register("otel:before_delete", p.before("DELETE")); err != nil {
		return err
	}
	if err := cb.Delete().After("gorm:delete").Register("otel:after_delete", p.after()); err != nil {
		return err
	}

	if err := cb.Row().Before("gorm:row").Register("otel:before_row", p.before("ROW")); err != nil {
		return err
	}
	if err := cb.Row().After("gorm:row").Register("otel:after_row", p.after()); err != nil {
		return err
	}

	if err := cb.Raw().Before("gorm:raw").Register("otel:before_raw", p.before("RAW")); err != nil {
		return err
	}
	if err := cb.Raw().After("gorm:raw").Register("otel:after_raw", p.after()); err != nil {
		return err
	}

	return nil
}

// before 返回在GORM操作之前执行的回调函数
func (p *GormTracingPlugin) before(operation string) func(db *gorm.DB) {
	return func(db *gorm.DB) {
		if p.disableErrSkip && db.Statement.SkipHooks {
			return
		}

		ctx := db.Statement.Context
		if ctx == nil {
			ctx = context.Background()
		}

		tableName := db.Statement.Table
		if tableName == "" {
			tableName = "unknown"
		}

		spanName := fmt.Sprintf("%s %s", operation, tableName)
		opts := []trace.SpanStartOption{
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithAttributes(
				semconv.DBSystemMySQL,
				attribute.String("db.name", p.dbName),
				attribute.String("db.operation", operation),
				attribute.String("db.sql.table", tableName),
			),
		}

		sqlStatement := db.Statement.SQL.String()
		if sqlStatement != "" {
			opts = append(opts, trace.WithAttributes(
				attribute.String("db.statement", tracing.SafeSQL(sqlStatement)),
			))
		}

		newCtx, span := p.tracer.Start(ctx, spanName, opts...)

		// 将span保存在DB上下文中，以便在after回调中使用
		db.Statement.Context = context.WithValue(newCtx, "otel-span", span)
	}
}

// after 返回在GORM操作之后执行的回调函数
func (p *GormTracingPlugin) after() func(db *gorm.DB) {
	return func(db *gorm.DB) {
		span, ok := db.Statement.Context.Value("otel-span").(trace.Span)
		if !ok {
			return
		}
		defer span.End()

		span.SetAttributes(attribute.Int64("db.rows_affected", db.Statement.RowsAffected))

		// ErrRecordNotFound 是业务逻辑正常情况的一部分，不应作为错误处理
		if db.Error != nil {
			if db.Error == gorm.ErrRecordNotFound {
				span.SetAttributes(attribute.String("error.type", "record_not_found"))
				span.SetStatus(codes.Ok, "record not found")
			} else {
				tracing.RecordError(span, db.Error, tracing.ErrorTypeDB)
			}
		} else {
			span.SetStatus(codes.Ok, "")
		}
	}
}

// NewGormTracingPlugin 创建一个新的GORM追踪插件
func NewGormTracingPlugin(dbName string) *GormTracingPlugin {
	return &GormTracingPlugin{
		tracer:         mysqlTracer,
		dbName:         dbName,
		dbSystem:       "mysql",
		disableErrSkip: true,
	}
}

// WithDisableErrSkip 设置是否禁用错误跳过
func (p *GormTracingPlugin) WithDisableErrSkip(disable bool) *GormTracingPlugin {
	p.disableErrSkip = disable
	return p
}

// Database 关系数据库接口
type Database interface {
	// DB 返回GORM数据库连接实例
	DB() *gorm.DB

	// Close 关闭数据库连接
	Close() error
}

// 确保MySQL实现了Database接口
var _ Database = (*MySQL)(nil)

// MySQL 提供关系数据库功能
type MySQL struct {
	db  *gorm.DB
	cfg *config.MySQLConfig

	// 匹配事件的发件箱路由，由 NewStorage 注入
	matchEventExchange string
	matchScoredKey     string
}

// SetMatchEventRouting 设置匹配事件写入发件箱时使用的交换机与路由键
func (m *MySQL) SetMatchEventRouting(exchange, routingKey string) {
	m.matchEventExchange = exchange
	m.matchScoredKey = routingKey
}

// NewMySQL 创建MySQL客户端
func NewMySQL(cfg *config.MySQLConfig) (*MySQL, error) {
	if cfg == nil {
		return nil, fmt.Errorf("MySQL配置不能为空")
	}

	// 构建DSN，添加超时设置
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local&timeout=%ds&readTimeout=%ds&writeTimeout=%ds",
		cfg.Username, cfg.Password, cfg.Host, cfg.Port, cfg.Database,
		cfg.ConnectTimeoutSeconds, cfg.ReadTimeoutSeconds, cfg.WriteTimeoutSeconds)

	// 配置GORM日志级别
	var logLevel logger.LogLevel
	switch cfg.LogLevel {
	case 1:
		logLevel = logger.Silent
	case 2:
		logLevel = logger.Error
	case 3:
		logLevel = logger.Warn
	case 4:
		logLevel = logger.Info
	default:
		logLevel = logger.Info
	}

	gormConfig := &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   logger.Default.LogMode(logLevel),
		PrepareStmt:                              true,
		NowFunc: func() time.Time {
			return time.Now().Local()
		},
	}

	db, err := gorm.Open(mysql.Open(dsn), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("连接MySQL失败: %w", err)
	}

	// 设置连接池参数
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取底层 sql.DB 失败: %w", err)
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute)
	sqlDB.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTimeMinutes) * time.Minute)

	m := &MySQL{
		db:  db,
		cfg: cfg,
	}

	// 注册OpenTelemetry追踪插件
	tracingPlugin := NewGormTracingPlugin(cfg.Database).WithDisableErrSkip(true)
	if err := db.Use(tracingPlugin); err != nil {
		return nil, fmt.Errorf("注册追踪插件失败: %w", err)
	}

	if err := m.autoMigrateSchema(); err != nil {
		sqlDB, _ := db.DB()
		if sqlDB != nil {
			sqlDB.Close()
		}
		return nil, fmt.Errorf("自动迁移数据库结构失败: %w", err)
	}

	log.Println("成功连接到MySQL并自动迁移数据库结构")
	return m, nil
}

// autoMigrateSchema 使用GORM自动迁移数据库表结构
func (m *MySQL) autoMigrateSchema() error {
	currentLogger := m.db.Logger

	// 迁移期间关闭SQL日志打印
	silentLogger := logger.New(
		log.New(log.Writer(), "", log.LstdFlags),
		logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Silent,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	silentDB := m.db.Session(&gorm.Session{Logger: silentLogger})

	err := silentDB.AutoMigrate(
		&models.CV{},
		&models.Job{},
		&models.Match{},
		&models.Application{},
		&models.OutboxMessage{},
	)

	m.db = m.db.Session(&gorm.Session{Logger: currentLogger})

	if err != nil {
		return fmt.Errorf("GORM自动迁移失败: %w", err)
	}
	log.Println("GORM数据库结构迁移成功")
	return nil
}

// DB 返回GORM数据库连接实例
func (m *MySQL) DB() *gorm.DB {
	return m.db
}

// Close 关闭数据库连接
func (m *MySQL) Close() error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return fmt.Errorf("获取底层 sql.DB 失败: %w", err)
	}
	return sqlDB.Close()
}

// ---------------------------------------------------------------------------
// CV
// ---------------------------------------------------------------------------

// CreateCV 创建简历记录，未指定ID时生成时间有序的UUIDv7
func (m *MySQL) CreateCV(ctx context.Context, cv *models.CV) error {
	if cv.CVID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("生成CVID失败: %w", err)
		}
		cv.CVID = id.String()
	}
	return m.db.WithContext(ctx).Create(cv).Error
}

// GetCVByID 通过 CVID 获取简历记录
func (m *MySQL) GetCVByID(ctx context.Context, cvID string) (*models.CV, error) {
	var cv models.CV
	if err := m.db.WithContext(ctx).Where("cv_id = ?", cvID).First(&cv).Error; err != nil {
		return nil, err
	}
	return &cv, nil
}

// GetCVForUser 获取属于指定用户的简历，带所有权校验
func (m *MySQL) GetCVForUser(ctx context.Context, userID, cvID string) (*models.CV, error) {
	var cv models.CV
	err := m.db.WithContext(ctx).
		Where("cv_id = ? AND user_id = ?", cvID, userID).
		First(&cv).Error
	if err != nil {
		return nil, err
	}
	return &cv, nil
}

// ListActiveCVsByUser 列出用户的所有活跃简历，按创建时间倒序
func (m *MySQL) ListActiveCVsByUser(ctx context.Context, userID string) ([]models.CV, error) {
	var cvs []models.CV
	err := m.db.WithContext(ctx).
		Where("user_id = ? AND is_active = ?", userID, true).
		Order("created_at DESC").
		Find(&cvs).Error
	return cvs, err
}

// ListActiveCVs 列出全部活跃简历，用于岗位扇出
func (m *MySQL) ListActiveCVs(ctx context.Context, limit int) ([]models.CV, error) {
	var cvs []models.CV
	q := m.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&cvs).Error
	return cvs, err
}

// CountCVsByUser 统计用户的活跃简历数量
func (m *MySQL) CountCVsByUser(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := m.db.WithContext(ctx).Model(&models.CV{}).
		Where("user_id = ? AND is_active = ?", userID, true).
		Count(&count).Error
	return count, err
}

// UpdateCVFields 更新简历的若干字段
func (m *MySQL) UpdateCVFields(ctx context.Context, cvID string, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	return m.db.WithContext(ctx).Model(&models.CV{}).
		Where("cv_id = ?", cvID).
		Updates(updates).Error
}

// UpdateCVContent 回填简历正文（从对象存储取回解析文本后）
func (m *MySQL) UpdateCVContent(ctx context.Context, cvID string, content string) error {
	return m.db.WithContext(ctx).Model(&models.CV{}).
		Where("cv_id = ?", cvID).
		Update("content", content).Error
}

// UpdateCVAnalysis 写入简历的最新独立分析快照
func (m *MySQL) UpdateCVAnalysis(ctx context.Context, cvID string, analysis datatypes.JSON) error {
	return m.db.WithContext(ctx).Model(&models.CV{}).
		Where("cv_id = ?", cvID).
		Update("latest_analysis", analysis).Error
}

// SetPrimaryCV 将指定简历设为用户的主简历
// 在同一事务中先取消该用户所有简历的主标记，再设置目标简历，
// 保证任意时刻同一用户的活跃简历中至多一份主简历
func (m *MySQL) SetPrimaryCV(ctx context.Context, userID, cvID string) error {
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cv models.CV
		if err := tx.Where("cv_id = ? AND user_id = ? AND is_active = ?", cvID, userID, true).
			First(&cv).Error; err != nil {
			return err
		}

		// 先全部降级
		if err := tx.Model(&models.CV{}).
			Where("user_id = ? AND is_primary = ?", userID, true).
			Update("is_primary", false).Error; err != nil {
			return fmt.Errorf("取消原主简历失败: %w", err)
		}

		// 再提升目标简历
		if err := tx.Model(&models.CV{}).
			Where("cv_id = ?", cvID).
			Update("is_primary", true).Error; err != nil {
			return fmt.Errorf("设置主简历失败: %w", err)
		}
		return nil
	})
}

// DeactivateCV 停用简历（软删除）
// 如果被停用的是主简历，则将该用户最近创建的剩余活跃简历提升为主简历
func (m *MySQL) DeactivateCV(ctx context.Context, userID, cvID string) error {
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cv models.CV
		if err := tx.Where("cv_id = ? AND user_id = ? AND is_active = ?", cvID, userID, true).
			First(&cv).Error; err != nil {
			return err
		}

		wasPrimary := cv.IsPrimary

		if err := tx.Model(&models.CV{}).
			Where("cv_id = ?", cvID).
			Updates(map[string]interface{}{"is_active": false, "is_primary": false}).Error; err != nil {
			return fmt.Errorf("停用简历失败: %w", err)
		}

		if !wasPrimary {
			return nil
		}

		// 提升最近创建的剩余活跃简历
		var next models.CV
		err := tx.Where("user_id = ? AND is_active = ?", userID, true).
			Order("created_at DESC").
			First(&next).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil // 没有剩余活跃简历
		}
		if err != nil {
			return fmt.Errorf("查询剩余活跃简历失败: %w", err)
		}

		if err := tx.Model(&models.CV{}).
			Where("cv_id = ?", next.CVID).
			Update("is_primary", true).Error; err != nil {
			return fmt.Errorf("提升新主简历失败: %w", err)
		}
		return nil
	})
}

// ---------------------------------------------------------------------------
// Job
// ---------------------------------------------------------------------------

// CreateJob 创建岗位记录
// 只给出技术权重时自动补齐HR权重，两者之和必须等于100
func (m *MySQL) CreateJob(ctx context.Context, job *models.Job) error {
	if job.TechnicalWeight == 0 && job.HRWeight == 0 {
		job.TechnicalWeight = 70
		job.HRWeight = 30
	} else if job.HRWeight == 0 {
		job.HRWeight = 100 - job.TechnicalWeight
	}
	if job.TechnicalWeight < 0 || job.TechnicalWeight > 100 ||
		job.HRWeight < 0 || job.HRWeight > 100 ||
		job.TechnicalWeight+job.HRWeight != 100 {
		return fmt.Errorf("非法的岗位权重: technical=%d hr=%d", job.TechnicalWeight, job.HRWeight)
	}
	if job.JobID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("生成JobID失败: %w", err)
		}
		job.JobID = id.String()
	}
	return m.db.WithContext(ctx).Create(job).Error
}

// GetJobByID 通过 JobID 获取岗位记录
func (m *MySQL) GetJobByID(ctx context.Context, jobID string) (*models.Job, error) {
	var job models.Job
	if err := m.db.WithContext(ctx).Where("job_id = ?", jobID).First(&job).Error; err != nil {
		return nil, err
	}
	return &job, nil
}

// UpdateJob 更新一个已有的岗位记录
func (m *MySQL) UpdateJob(ctx context.Context, job *models.Job) error {
	return m.db.WithContext(ctx).Save(job).Error
}

// UpdateJobStatus 更新岗位状态（归档即状态变更，不删除记录）
func (m *MySQL) UpdateJobStatus(ctx context.Context, jobID string, status string) error {
	return m.db.WithContext(ctx).Model(&models.Job{}).
		Where("job_id = ?", jobID).
		Update("status", status).Error
}

// ListJobsByStatus 按状态列出岗位
func (m *MySQL) ListJobsByStatus(ctx context.Context, status string, limit int) ([]models.Job, error) {
	var jobs []models.Job
	q := m.db.WithContext(ctx).
		Where("status = ?", status).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&jobs).Error
	return jobs, err
}

// ListJobsByEmployer 列出雇主的全部岗位，不过滤状态
func (m *MySQL) ListJobsByEmployer(ctx context.Context, employerID string) ([]models.Job, error) {
	var jobs []models.Job
	err := m.db.WithContext(ctx).
		Where("employer_id = ?", employerID).
		Order("created_at DESC").
		Find(&jobs).Error
	return jobs, err
}

// ListNewestActiveJobsExcluding 列出最近创建的活跃岗位，排除给定ID集合
// 用于推荐视图的补位
func (m *MySQL) ListNewestActiveJobsExcluding(ctx context.Context, excludeIDs []string, limit int) ([]models.Job, error) {
	var jobs []models.Job
	q := m.db.WithContext(ctx).
		Where("status = ?", constants.JobStatusActive)
	if len(excludeIDs) > 0 {
		q = q.Where("job_id NOT IN ?", excludeIDs)
	}
	err := q.Order("created_at DESC").Limit(limit).Find(&jobs).Error
	return jobs, err
}

// ---------------------------------------------------------------------------
// Match
// ---------------------------------------------------------------------------

// InsertMatchOrGetExisting 原子地插入匹配记录
// 借助 (cv_id, job_id) 唯一索引和 ON CONFLICT DO NOTHING 实现:
// 并发写入同一对时只有一个写入者胜出，其余调用读回胜出者的记录。
// 返回的 bool 表示本次调用是否真正插入了新记录
func (m *MySQL) InsertMatchOrGetExisting(ctx context.Context, match *models.Match) (*models.Match, bool, error) {
	ctx, span := mysqlTracer.Start(ctx, "MySQL.InsertMatchOrGetExisting",
		trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	span.SetAttributes(
		semconv.DBSystemMySQL,
		attribute.String("db.name", m.cfg.Database),
		attribute.String("db.operation", "INSERT_IGNORE"),
		attribute.String("db.sql.table", "matches"),
		attribute.String("match.cv_id", match.CVID),
		attribute.String("match.job_id", match.JobID),
	)

	result := m.db.WithContext(ctx).Clauses(
		clause.OnConflict{
			Columns:   []clause.Column{{Name: "cv_id"}, {Name: "job_id"}},
			DoNothing: true,
		}).Create(match)
	if result.Error != nil {
		span.RecordError(result.Error)
		span.SetStatus(codes.Error, result.Error.Error())
		return nil, false, result.Error
	}

	if result.RowsAffected > 0 {
		span.SetAttributes(attribute.Bool("match.inserted", true))
		span.SetStatus(codes.Ok, "")
		return match, true, nil
	}

	// 冲突时读回已有记录
	existing, err := m.GetMatchByPair(ctx, match.CVID, match.JobID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, false, fmt.Errorf("读取已有匹配记录失败: %w", err)
	}
	span.SetAttributes(attribute.Bool("match.inserted", false))
	span.SetStatus(codes.Ok, "")
	return existing, false, nil
}

// EnqueueMatchScoredEvent 把新产生的匹配结果写入发件箱表
// 由消息中继异步发布到匹配事件交换机；未配置路由时直接跳过
func (m *MySQL) EnqueueMatchScoredEvent(ctx context.Context, match *models.Match) error {
	if m.matchEventExchange == "" || m.matchScoredKey == "" {
		return nil
	}

	payload, err := json.Marshal(MatchScoredMessage{
		MatchID:    match.MatchID,
		CVID:       match.CVID,
		JobID:      match.JobID,
		FinalScore: match.FinalScore,
		ScoredAt:   match.MatchedAt.Unix(),
	})
	if err != nil {
		return fmt.Errorf("序列化匹配事件失败: %w", err)
	}

	entry := models.OutboxMessage{
		AggregateID:      match.CVID,
		EventType:        "match.scored",
		Payload:          string(payload),
		TargetExchange:   m.matchEventExchange,
		TargetRoutingKey: m.matchScoredKey,
	}
	return m.db.WithContext(ctx).Create(&entry).Error
}

// GetMatchByPair 通过 (CVID, JobID) 获取匹配记录
func (m *MySQL) GetMatchByPair(ctx context.Context, cvID, jobID string) (*models.Match, error) {
	var match models.Match
	err := m.db.WithContext(ctx).
		Where("cv_id = ? AND job_id = ?", cvID, jobID).
		First(&match).Error
	if err != nil {
		return nil, err
	}
	return &match, nil
}

// ListMatchesForCV 列出简历的匹配记录，按总分倒序
func (m *MySQL) ListMatchesForCV(ctx context.Context, cvID string, limit int) ([]models.Match, error) {
	var matches []models.Match
	q := m.db.WithContext(ctx).
		Preload("Job").
		Where("cv_id = ?", cvID).
		Order("final_score DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&matches).Error
	return matches, err
}

// ListMatchesForJob 列出岗位的匹配记录，按总分倒序
func (m *MySQL) ListMatchesForJob(ctx context.Context, jobID string, limit int) ([]models.Match, error) {
	var matches []models.Match
	q := m.db.WithContext(ctx).
		Preload("CV").
		Where("job_id = ?", jobID).
		Order("final_score DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&matches).Error
	return matches, err
}

// ---------------------------------------------------------------------------
// Application
// ---------------------------------------------------------------------------

// CreateApplication 创建申请记录
// (job_id, applicant_id) 上的唯一索引拒绝重复申请
func (m *MySQL) CreateApplication(ctx context.Context, app *models.Application) error {
	if err := m.db.WithContext(ctx).Create(app).Error; err != nil {
		return err
	}
	// 维护岗位的申请计数
	return m.db.WithContext(ctx).Model(&models.Job{}).
		Where("job_id = ?", app.JobID).
		Update("application_count", gorm.Expr("application_count + 1")).Error
}

// ListApplicationsByJob 列出岗位的全部申请，预加载关联简历
func (m *MySQL) ListApplicationsByJob(ctx context.Context, jobID string) ([]models.Application, error) {
	var apps []models.Application
	err := m.db.WithContext(ctx).
		Preload("CV").
		Where("job_id = ?", jobID).
		Order("applied_at ASC").
		Find(&apps).Error
	return apps, err
}

// UpdateApplicationAnalysis 将分析报告快照写回申请记录
func (m *MySQL) UpdateApplicationAnalysis(ctx context.Context, applicationID uint64, analysis datatypes.JSON) error {
	return m.db.WithContext(ctx).Model(&models.Application{}).
		Where("application_id = ?", applicationID).
		Update("analysis", analysis).Error
}
