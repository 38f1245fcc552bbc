package storage

import (
	"context"
	"testing"
	"time"

	"cv-match-go/internal/storage/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// newCVTestDB 基于内存sqlite构造仅含cvs表的存储
// 模型里的列默认值是MySQL方言，所以建表用手写DDL而不是AutoMigrate
func newCVTestDB(t *testing.T) *MySQL {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, gdb.Exec(`CREATE TABLE cvs (
		cv_id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		title TEXT,
		content TEXT,
		parsed_text_path TEXT,
		skills TEXT,
		languages TEXT,
		is_primary BOOLEAN NOT NULL DEFAULT 0,
		is_active BOOLEAN NOT NULL DEFAULT 1,
		latest_analysis TEXT,
		created_at DATETIME,
		updated_at DATETIME
	)`).Error)

	return &MySQL{db: gdb}
}

func seedCV(t *testing.T, m *MySQL, cvID, userID string, primary, active bool, createdAt time.Time) {
	t.Helper()
	// 用map插入：结构体Create时gorm会把零值字段(如IsActive=false)替换成default标签值
	require.NoError(t, m.db.Model(&models.CV{}).Create(map[string]interface{}{
		"cv_id":      cvID,
		"user_id":    userID,
		"title":      "简历-" + cvID,
		"content":    "简历正文",
		"is_primary": primary,
		"is_active":  active,
		"created_at": createdAt,
		"updated_at": createdAt,
	}).Error)
}

func fetchCV(t *testing.T, m *MySQL, cvID string) models.CV {
	t.Helper()
	var cv models.CV
	require.NoError(t, m.db.Where("cv_id = ?", cvID).First(&cv).Error)
	return cv
}

func countPrimaries(t *testing.T, m *MySQL, userID string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, m.db.Model(&models.CV{}).
		Where("user_id = ? AND is_primary = ?", userID, true).
		Count(&n).Error)
	return n
}

func TestSetPrimaryCVDemotesPrevious(t *testing.T) {
	m := newCVTestDB(t)
	base := time.Now().Add(-time.Hour)
	seedCV(t, m, "cv-a", "user-1", true, true, base)
	seedCV(t, m, "cv-b", "user-1", false, true, base.Add(time.Minute))

	require.NoError(t, m.SetPrimaryCV(context.Background(), "user-1", "cv-b"))

	assert.True(t, fetchCV(t, m, "cv-b").IsPrimary)
	assert.False(t, fetchCV(t, m, "cv-a").IsPrimary)
	// 切换后该用户仍然只有一份主简历
	assert.Equal(t, int64(1), countPrimaries(t, m, "user-1"))
}

func TestSetPrimaryCVRejectsInactiveTarget(t *testing.T) {
	m := newCVTestDB(t)
	base := time.Now().Add(-time.Hour)
	seedCV(t, m, "cv-a", "user-1", true, true, base)
	seedCV(t, m, "cv-dead", "user-1", false, false, base.Add(time.Minute))

	err := m.SetPrimaryCV(context.Background(), "user-1", "cv-dead")

	require.Error(t, err)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	// 原主简历不受影响
	assert.True(t, fetchCV(t, m, "cv-a").IsPrimary)
}

func TestSetPrimaryCVRejectsForeignCV(t *testing.T) {
	m := newCVTestDB(t)
	base := time.Now().Add(-time.Hour)
	seedCV(t, m, "cv-a", "user-1", true, true, base)
	seedCV(t, m, "cv-x", "user-2", true, true, base)

	err := m.SetPrimaryCV(context.Background(), "user-1", "cv-x")

	require.Error(t, err)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.True(t, fetchCV(t, m, "cv-x").IsPrimary)
}

func TestDeactivatePrimaryCVPromotesNewestRemaining(t *testing.T) {
	m := newCVTestDB(t)
	base := time.Now().Add(-time.Hour)
	seedCV(t, m, "cv-old", "user-1", true, true, base)
	seedCV(t, m, "cv-mid", "user-1", false, true, base.Add(time.Minute))
	seedCV(t, m, "cv-new", "user-1", false, true, base.Add(2*time.Minute))

	require.NoError(t, m.DeactivateCV(context.Background(), "user-1", "cv-old"))

	old := fetchCV(t, m, "cv-old")
	assert.False(t, old.IsActive)
	assert.False(t, old.IsPrimary)

	// 最近创建的剩余活跃简历接任主简历
	assert.True(t, fetchCV(t, m, "cv-new").IsPrimary)
	assert.False(t, fetchCV(t, m, "cv-mid").IsPrimary)
	assert.Equal(t, int64(1), countPrimaries(t, m, "user-1"))
}

func TestDeactivateNonPrimaryCVKeepsPrimary(t *testing.T) {
	m := newCVTestDB(t)
	base := time.Now().Add(-time.Hour)
	seedCV(t, m, "cv-a", "user-1", true, true, base)
	seedCV(t, m, "cv-b", "user-1", false, true, base.Add(time.Minute))

	require.NoError(t, m.DeactivateCV(context.Background(), "user-1", "cv-b"))

	assert.False(t, fetchCV(t, m, "cv-b").IsActive)
	assert.True(t, fetchCV(t, m, "cv-a").IsPrimary)
	assert.Equal(t, int64(1), countPrimaries(t, m, "user-1"))
}

func TestDeactivateLastActiveCV(t *testing.T) {
	m := newCVTestDB(t)
	seedCV(t, m, "cv-only", "user-1", true, true, time.Now().Add(-time.Hour))

	require.NoError(t, m.DeactivateCV(context.Background(), "user-1", "cv-only"))

	only := fetchCV(t, m, "cv-only")
	assert.False(t, only.IsActive)
	assert.False(t, only.IsPrimary)
	// 没有剩余简历时不存在主简历
	assert.Equal(t, int64(0), countPrimaries(t, m, "user-1"))
}

func TestDeactivateCVNotFound(t *testing.T) {
	m := newCVTestDB(t)

	err := m.DeactivateCV(context.Background(), "user-1", "cv-missing")

	require.Error(t, err)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
