package models

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	storage "github.com/mnuddindev/threadly/pkg/redis"
	"github.com/mnuddindev/threadly/pkg/utils"
)

// newMockDB opens gorm over a sqlmock connection. Default transactions are
// skipped so expectations match single statements.
func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	gdb, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		DisableAutomaticPing:   true,
	})
	require.NoError(t, err)
	return gdb, mock
}

// newDeadRedis returns a client pointing at a closed port. Cache reads miss
// and cache writes fail silently, which is the degraded mode the model
// layer already tolerates.
func newDeadRedis() *storage.RedisClient {
	return &storage.RedisClient{Client: redis.NewClient(&redis.Options{
		Addr:            "127.0.0.1:1",
		DialTimeout:     10 * time.Millisecond,
		ReadTimeout:     10 * time.Millisecond,
		WriteTimeout:    10 * time.Millisecond,
		MaxRetries:      -1,
		PoolSize:        1,
		MinIdleConns:    0,
		PoolTimeout:     10 * time.Millisecond,
		ConnMaxIdleTime: time.Millisecond,
	})}
}

var likeColumns = []string{"id", "user_id", "thread_id", "created_at"}

func TestToggleLikeCreatesWhenAbsent(t *testing.T) {
	db, mock := newMockDB(t)
	rclient := newDeadRedis()
	userID, threadID := uuid.New(), uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "likes"`).
		WithArgs(userID, threadID, 1).
		WillReturnRows(sqlmock.NewRows(likeColumns))
	mock.ExpectExec(`INSERT INTO "likes"`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	liked, err := ToggleLike(context.Background(), rclient, db, userID, threadID)
	require.NoError(t, err)
	assert.True(t, liked)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestToggleLikeDeletesWhenPresent(t *testing.T) {
	db, mock := newMockDB(t)
	rclient := newDeadRedis()
	userID, threadID, likeID := uuid.New(), uuid.New(), uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "likes"`).
		WithArgs(userID, threadID, 1).
		WillReturnRows(sqlmock.NewRows(likeColumns).
			AddRow(likeID, userID, threadID, time.Now()))
	mock.ExpectExec(`DELETE FROM "likes"`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	liked, err := ToggleLike(context.Background(), rclient, db, userID, threadID)
	require.NoError(t, err)
	assert.False(t, liked)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// A concurrent toggle that wins the insert leaves a duplicate-key error
// behind; the loser must treat it as already liked, not as a failure.
func TestToggleLikeDuplicateInsertIsNoOp(t *testing.T) {
	db, mock := newMockDB(t)
	rclient := newDeadRedis()
	userID, threadID := uuid.New(), uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "likes"`).
		WithArgs(userID, threadID, 1).
		WillReturnRows(sqlmock.NewRows(likeColumns))
	mock.ExpectExec(`INSERT INTO "likes"`).
		WillReturnError(errors.New(`ERROR: duplicate key value violates unique constraint "idx_like_user_thread" (SQLSTATE 23505)`))

	liked, err := ToggleLike(context.Background(), rclient, db, userID, threadID)
	require.NoError(t, err)
	assert.True(t, liked)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// A concurrent toggle that already removed the row leaves zero affected
// rows behind; the loser must treat it as already unliked.
func TestToggleLikeMissingDeleteIsNoOp(t *testing.T) {
	db, mock := newMockDB(t)
	rclient := newDeadRedis()
	userID, threadID, likeID := uuid.New(), uuid.New(), uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "likes"`).
		WithArgs(userID, threadID, 1).
		WillReturnRows(sqlmock.NewRows(likeColumns).
			AddRow(likeID, userID, threadID, time.Now()))
	mock.ExpectExec(`DELETE FROM "likes"`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	liked, err := ToggleLike(context.Background(), rclient, db, userID, threadID)
	require.NoError(t, err)
	assert.False(t, liked)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestToggleLikeWrapsStoreFailure(t *testing.T) {
	db, mock := newMockDB(t)
	rclient := newDeadRedis()
	userID, threadID := uuid.New(), uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "likes"`).
		WithArgs(userID, threadID, 1).
		WillReturnError(errors.New("deadlock detected"))

	_, err := ToggleLike(context.Background(), rclient, db, userID, threadID)
	require.Error(t, err)
	assert.True(t, utils.IsCode(err, utils.ErrInternalServerError.Code))
	assert.Contains(t, err.Error(), "Like operation failed")

	var appErr *utils.CustomError
	require.True(t, utils.As(err, &appErr))
	assert.Contains(t, appErr.Message, userID.String())
	assert.Contains(t, appErr.Message, threadID.String())
}

// Connectivity-class failures are the store being unreachable, not the
// request being wrong; they surface as 503.
func TestToggleLikeConnectivityFailureIsUnavailable(t *testing.T) {
	db, mock := newMockDB(t)
	rclient := newDeadRedis()
	userID, threadID := uuid.New(), uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "likes"`).
		WithArgs(userID, threadID, 1).
		WillReturnError(&net.OpError{Op: "read", Net: "tcp", Err: errors.New("connection reset by peer")})

	_, err := ToggleLike(context.Background(), rclient, db, userID, threadID)
	require.Error(t, err)
	assert.True(t, utils.IsCode(err, utils.ErrServiceUnavailable.Code))
}

// Two sequential toggles by the same user restore the starting state:
// the like is gone again and the count is back where it was.
func TestToggleLikeTwiceRoundTrips(t *testing.T) {
	db, mock := newMockDB(t)
	rclient := newDeadRedis()
	userID, threadID := uuid.New(), uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "likes"`).
		WithArgs(userID, threadID, 1).
		WillReturnRows(sqlmock.NewRows(likeColumns))
	mock.ExpectExec(`INSERT INTO "likes"`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	liked, err := ToggleLike(context.Background(), rclient, db, userID, threadID)
	require.NoError(t, err)
	assert.True(t, liked)

	mock.ExpectQuery(`SELECT \* FROM "likes"`).
		WithArgs(userID, threadID, 1).
		WillReturnRows(sqlmock.NewRows(likeColumns).
			AddRow(uuid.New(), userID, threadID, time.Now()))
	mock.ExpectExec(`DELETE FROM "likes"`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	liked, err = ToggleLike(context.Background(), rclient, db, userID, threadID)
	require.NoError(t, err)
	assert.False(t, liked)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "likes"`).
		WithArgs(userID, threadID).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	hasLiked, err := HasUserLiked(context.Background(), db, userID, threadID)
	require.NoError(t, err)
	assert.False(t, hasLiked)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "likes"`).
		WithArgs(threadID).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	count, err := LikesCount(context.Background(), rclient, db, threadID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestToggleLikeRejectsNilIDs(t *testing.T) {
	db, _ := newMockDB(t)
	rclient := newDeadRedis()

	_, err := ToggleLike(context.Background(), rclient, db, uuid.Nil, uuid.New())
	require.Error(t, err)
	assert.True(t, utils.IsCode(err, utils.ErrBadRequest.Code))

	_, err = ToggleLike(context.Background(), rclient, db, uuid.New(), uuid.Nil)
	require.Error(t, err)
	assert.True(t, utils.IsCode(err, utils.ErrBadRequest.Code))
}

func TestLikesCount(t *testing.T) {
	db, mock := newMockDB(t)
	rclient := newDeadRedis()
	threadID := uuid.New()

	mock.ExpectQuery(`SELECT count\(\*\) FROM "likes"`).
		WithArgs(threadID).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	count, err := LikesCount(context.Background(), rclient, db, threadID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestHasUserLiked(t *testing.T) {
	db, mock := newMockDB(t)
	userID, threadID := uuid.New(), uuid.New()

	mock.ExpectQuery(`SELECT count\(\*\) FROM "likes"`).
		WithArgs(userID, threadID).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	liked, err := HasUserLiked(context.Background(), db, userID, threadID)
	require.NoError(t, err)
	assert.True(t, liked)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "likes"`).
		WithArgs(userID, threadID).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	liked, err = HasUserLiked(context.Background(), db, userID, threadID)
	require.NoError(t, err)
	assert.False(t, liked)
}

func TestIsDuplicateKey(t *testing.T) {
	assert.True(t, isDuplicateKey(errors.New(`duplicate key value violates unique constraint "idx_like_user_thread"`)))
	assert.True(t, isDuplicateKey(gorm.ErrDuplicatedKey))
	assert.False(t, isDuplicateKey(errors.New("connection refused")))
}
