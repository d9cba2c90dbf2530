package mysql

import (
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Xushengqwer/thread_service/models/entities"
)

func newTestPost(id uint64, createdAt time.Time) *entities.Post {
	post := &entities.Post{}
	post.ID = id
	post.CreatedAt = createdAt
	return post
}

// feedPageInMemory 在内存中复现信息流查询的分页语义：
// 按 (created_at, id) 降序排序，应用复合游标过滤，多查一条后交给 cutPage。
func feedPageInMemory(all []*entities.Post, lastCreatedAt *time.Time, lastID *uint64, pageSize int) ([]*entities.Post, *time.Time, *uint64) {
	sorted := make([]*entities.Post, len(all))
	copy(sorted, all)
	sort.Slice(sorted, func(i, j int) bool {
		if !sorted[i].CreatedAt.Equal(sorted[j].CreatedAt) {
			return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
		}
		return sorted[i].ID > sorted[j].ID
	})

	var filtered []*entities.Post
	for _, p := range sorted {
		if lastCreatedAt != nil && lastID != nil {
			if !(p.CreatedAt.Before(*lastCreatedAt) || (p.CreatedAt.Equal(*lastCreatedAt) && p.ID < *lastID)) {
				continue
			}
		}
		filtered = append(filtered, p)
		if len(filtered) == pageSize+1 {
			break
		}
	}

	return cutPage(filtered, pageSize)
}

func TestCutPage_NoMoreData(t *testing.T) {
	now := time.Now()
	posts := []*entities.Post{
		newTestPost(3, now),
		newTestPost(2, now.Add(-time.Minute)),
	}

	page, nextCreatedAt, nextPostID := cutPage(posts, 5)

	assert.Len(t, page, 2)
	assert.Nil(t, nextCreatedAt)
	assert.Nil(t, nextPostID)
}

func TestCutPage_TruncatesAndReturnsCursor(t *testing.T) {
	now := time.Now()
	posts := []*entities.Post{
		newTestPost(5, now),
		newTestPost(4, now.Add(-time.Minute)),
		newTestPost(3, now.Add(-2*time.Minute)), // 多查出的第 pageSize+1 条
	}

	page, nextCreatedAt, nextPostID := cutPage(posts, 2)

	require.Len(t, page, 2)
	assert.Equal(t, uint64(5), page[0].ID)
	assert.Equal(t, uint64(4), page[1].ID)
	// 游标取自本页最后一条，而不是被丢弃的多查记录。
	require.NotNil(t, nextCreatedAt)
	require.NotNil(t, nextPostID)
	assert.True(t, nextCreatedAt.Equal(now.Add(-time.Minute)))
	assert.Equal(t, uint64(4), *nextPostID)
}

func TestCutPage_EmptyInput(t *testing.T) {
	page, nextCreatedAt, nextPostID := cutPage(nil, 10)

	assert.Empty(t, page)
	assert.Nil(t, nextCreatedAt)
	assert.Nil(t, nextPostID)
}

// 5 条帖子、每页 2 条的完整翻页：逐页推进游标直到取尽，
// 验证结果既不丢行也不重复，且整体保持降序。
func TestCursorWalk_FivePostsPageSizeTwo(t *testing.T) {
	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	all := []*entities.Post{
		newTestPost(1, base),
		newTestPost(2, base.Add(time.Minute)),
		newTestPost(3, base.Add(2*time.Minute)),
		newTestPost(4, base.Add(3*time.Minute)),
		newTestPost(5, base.Add(4*time.Minute)),
	}

	var (
		seen          []uint64
		lastCreatedAt *time.Time
		lastPostID    *uint64
		pages         int
	)
	for {
		page, nextCreatedAt, nextPostID := feedPageInMemory(all, lastCreatedAt, lastPostID, 2)
		pages++
		for _, p := range page {
			seen = append(seen, p.ID)
		}
		if nextCreatedAt == nil || nextPostID == nil {
			break
		}
		lastCreatedAt, lastPostID = nextCreatedAt, nextPostID
		require.Less(t, pages, 10, "翻页未收敛")
	}

	assert.Equal(t, 3, pages)
	assert.Equal(t, []uint64{5, 4, 3, 2, 1}, seen)
}

// 相同创建时间的帖子依赖 id 作为次级排序键：翻页在重复时间戳处
// 依然不重不漏。
func TestCursorWalk_DuplicateTimestamps(t *testing.T) {
	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	all := []*entities.Post{
		newTestPost(1, base),
		newTestPost(2, base), // 与 1、3 同一时刻
		newTestPost(3, base),
		newTestPost(4, base.Add(time.Minute)),
		newTestPost(5, base.Add(time.Minute)),
	}

	var (
		seen          []uint64
		lastCreatedAt *time.Time
		lastPostID    *uint64
		pages         int
	)
	for {
		page, nextCreatedAt, nextPostID := feedPageInMemory(all, lastCreatedAt, lastPostID, 2)
		pages++
		for _, p := range page {
			seen = append(seen, p.ID)
		}
		if nextCreatedAt == nil || nextPostID == nil {
			break
		}
		lastCreatedAt, lastPostID = nextCreatedAt, nextPostID
		require.Less(t, pages, 10, "翻页未收敛")
	}

	assert.Equal(t, []uint64{5, 4, 3, 2, 1}, seen)

	uniq := make(map[uint64]struct{}, len(seen))
	for _, id := range seen {
		uniq[id] = struct{}{}
	}
	assert.Len(t, uniq, 5, "翻页结果存在重复记录")
}
