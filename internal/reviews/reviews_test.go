package reviews

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestDuplicateReviewDetection(t *testing.T) {
	if !duplicateReview(&pgconn.PgError{Code: "23505"}) {
		t.Error("unique violation should read as a duplicate review")
	}
	if duplicateReview(&pgconn.PgError{Code: "08006"}) {
		t.Error("a dropped connection is not a duplicate review")
	}
	if duplicateReview(&pgconn.PgError{Code: "23503"}) {
		t.Error("a foreign key violation is not a duplicate review")
	}
	if duplicateReview(context.DeadlineExceeded) {
		t.Error("a timeout is not a duplicate review")
	}
}
