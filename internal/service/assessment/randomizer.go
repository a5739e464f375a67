package assessment

import (
	"encoding/binary"
	"hash/fnv"
	"math/rand"
	"sort"

	"github.com/google/uuid"

	"github.com/Wetende/crossview-sub004/internal/domain/entity"
)

// SeedFromAttemptID выводит зерно перемешивания из ID попытки.
// Для UUID используются все 16 байт; для прочих строк — FNV-хеш.
func SeedFromAttemptID(attemptID string) int64 {
	if id, err := uuid.Parse(attemptID); err == nil {
		hi := binary.BigEndian.Uint64(id[:8])
		lo := binary.BigEndian.Uint64(id[8:])
		return int64(hi ^ lo)
	}
	h := fnv.New64a()
	_, _ = h.Write([]byte(attemptID))
	return int64(h.Sum64())
}

// QuestionOrder возвращает ID вопросов в порядке показа для попытки.
// Без перемешивания порядок задаётся Question.Order, при равенстве — ID.
// С перемешиванием результат детерминирован для одного и того же seed.
func QuestionOrder(questions []entity.Question, randomize bool, seed int64) []uint {
	sorted := make([]entity.Question, len(questions))
	copy(sorted, questions)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Order != sorted[j].Order {
			return sorted[i].Order < sorted[j].Order
		}
		return sorted[i].ID < sorted[j].ID
	})

	ids := make([]uint, len(sorted))
	for i := range sorted {
		ids[i] = sorted[i].ID
	}
	if randomize {
		Shuffle(ids, seed)
	}
	return ids
}

// Shuffle детерминированно перемешивает срез на месте
func Shuffle[T any](items []T, seed int64) {
	rnd := rand.New(rand.NewSource(seed))
	rnd.Shuffle(len(items), func(i, j int) {
		items[i], items[j] = items[j], items[i]
	})
}

// SubSeed выводит независимое зерно для вложенного перемешивания (например, ответов
// в вопросе на сопоставление), чтобы оно не повторяло порядок вопросов.
func SubSeed(seed int64, questionID uint) int64 {
	h := fnv.New64a()
	var buf [16]byte
	binary.BigEndian.PutUint64(buf[:8], uint64(seed))
	binary.BigEndian.PutUint64(buf[8:], uint64(questionID))
	_, _ = h.Write(buf[:])
	return int64(h.Sum64())
}
