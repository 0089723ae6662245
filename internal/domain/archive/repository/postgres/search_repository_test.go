package postgres

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/0xpolarzero/nightwatch/internal/domain/archive/deps"
)

func newMockSearchRepo(t *testing.T) (deps.SearchRepository, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		DisableAutomaticPing: true,
		Logger:               gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open gorm: %v", err)
	}

	return NewSearchRepository(db, zerolog.Nop()), mock
}

const tweetMatchSQL = `SELECT "id","conversation_id" FROM "tweets" WHERE to_tsvector('english', text) @@ websearch_to_tsquery('english', $1)`
const messageMatchSQL = `SELECT DISTINCT "thread_id" FROM "messages" WHERE to_tsvector('english', text) @@ websearch_to_tsquery('english', $1)`

func TestSearchTweets_ExpandsConversations(t *testing.T) {
	repo, mock := newMockSearchRepo(t)

	// two matches share conversation 42: the expansion must dedupe it,
	// and the match with no conversation contributes its id only
	mock.ExpectQuery(regexp.QuoteMeta(tweetMatchSQL)).
		WithArgs("wallet").
		WillReturnRows(sqlmock.NewRows([]string{"id", "conversation_id"}).
			AddRow(int64(1), int64(42)).
			AddRow(int64(2), nil).
			AddRow(int64(3), int64(42)))

	created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT \* FROM "tweets" WHERE .*id IN \(\$1,\$2,\$3\) OR conversation_id IN \(\$4\).*ORDER BY created_at DESC`).
		WithArgs(int64(1), int64(2), int64(3), int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "text", "author_id", "created_at"}).
			AddRow(int64(3), "reply in thread", int64(7), created).
			AddRow(int64(1), "wallet drained", int64(7), created.Add(-time.Hour)))

	mock.ExpectQuery(`SELECT \* FROM "authors" WHERE "authors"\."id" = \$1`).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "display_name"}).
			AddRow(int64(7), "zachxbt", "ZachXBT"))

	tweets, err := repo.SearchTweets(context.Background(), "wallet")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tweets) != 2 {
		t.Fatalf("expected 2 tweets, got %d", len(tweets))
	}
	if tweets[0].Author == nil || tweets[0].Author.Username != "zachxbt" {
		t.Errorf("expected author to be loaded, got %+v", tweets[0].Author)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestSearchTweets_NoConversationsFallsBackToIDs(t *testing.T) {
	repo, mock := newMockSearchRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(tweetMatchSQL)).
		WithArgs("wallet").
		WillReturnRows(sqlmock.NewRows([]string{"id", "conversation_id"}).
			AddRow(int64(5), nil))

	mock.ExpectQuery(`SELECT \* FROM "tweets" WHERE id IN \(\$1\) ORDER BY created_at DESC`).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "text", "author_id", "created_at"}).
			AddRow(int64(5), "wallet drained", int64(7), time.Now()))

	mock.ExpectQuery(`SELECT \* FROM "authors" WHERE "authors"\."id" = \$1`).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "display_name"}).
			AddRow(int64(7), "zachxbt", "ZachXBT"))

	tweets, err := repo.SearchTweets(context.Background(), "wallet")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tweets) != 1 || tweets[0].ID != 5 {
		t.Fatalf("unexpected result %+v", tweets)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestSearchTweets_NoMatchSkipsExpansion(t *testing.T) {
	repo, mock := newMockSearchRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(tweetMatchSQL)).
		WithArgs("nothing").
		WillReturnRows(sqlmock.NewRows([]string{"id", "conversation_id"}))

	tweets, err := repo.SearchTweets(context.Background(), "nothing")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tweets == nil || len(tweets) != 0 {
		t.Fatalf("expected empty non-nil slice, got %v", tweets)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expansion must not run on an empty match: %v", err)
	}
}

func TestSearchMessages_ExpandsThreads(t *testing.T) {
	repo, mock := newMockSearchRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(messageMatchSQL)).
		WithArgs("wallet").
		WillReturnRows(sqlmock.NewRows([]string{"thread_id"}).
			AddRow("777-10"))

	created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT \* FROM "messages" WHERE thread_id IN \(\$1\) ORDER BY created_at ASC`).
		WithArgs("777-10").
		WillReturnRows(sqlmock.NewRows([]string{"id", "message_id", "text", "channel_id", "thread_id", "created_at"}).
			AddRow("777-10", int64(10), "wallet found", int64(777), "777-10", created).
			AddRow("777-11", int64(11), "follow-up", int64(777), "777-10", created.Add(time.Minute)))

	mock.ExpectQuery(`SELECT \* FROM "channels" WHERE "channels"\."id" = \$1`).
		WithArgs(int64(777)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "channel_username"}).
			AddRow(int64(777), "Investigations", "investigations"))

	messages, err := repo.SearchMessages(context.Background(), "wallet")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("expected the whole thread, got %d messages", len(messages))
	}
	if messages[0].Channel == nil || messages[0].Channel.ChannelUsername != "investigations" {
		t.Errorf("expected channel to be loaded, got %+v", messages[0].Channel)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestSearchMessages_NoMatchSkipsExpansion(t *testing.T) {
	repo, mock := newMockSearchRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(messageMatchSQL)).
		WithArgs("nothing").
		WillReturnRows(sqlmock.NewRows([]string{"thread_id"}))

	messages, err := repo.SearchMessages(context.Background(), "nothing")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if messages == nil || len(messages) != 0 {
		t.Fatalf("expected empty non-nil slice, got %v", messages)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expansion must not run on an empty match: %v", err)
	}
}
