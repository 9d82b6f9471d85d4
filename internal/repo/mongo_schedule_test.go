package repo_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quickavail/backend/internal/repo"
	"github.com/quickavail/backend/testutil"
)

// TestMongoScheduleRepo runs the repo contract against MongoDB, one scratch
// database per subtest. Skipped without TEST_MONGO_URL.
func TestMongoScheduleRepo(t *testing.T) {
	runScheduleRepoContract(t, func(t *testing.T) repo.ScheduleRepo {
		r := repo.NewMongoScheduleRepo(testutil.NewMongoDB(t))
		require.NoError(t, r.EnsureIndexes(context.Background()))
		return r
	})
}
