package db

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"student-manager-go/config"
	"student-manager-go/models"
)

const (
	studentsSuffix = "s"        // Sorted set: {prefix}s -> student ids scored by id
	infoSuffix     = ":"        // Hash prefix: {prefix}:{id} -> student fields
	nextIDSuffix   = ":next_id" // Counter: {prefix}:next_id -> last assigned id
)

// RedisService stores the student table in Redis
type RedisService struct {
	Client *redis.Client
	prefix string
	logger *zap.Logger
}

// NewRedisService creates a new RedisService instance. An empty prefix
// defaults to "student".
func NewRedisService(client *redis.Client, prefix string, logger *zap.Logger) *RedisService {
	if prefix == "" {
		prefix = "student"
	}
	return &RedisService{
		Client: client,
		prefix: prefix,
		logger: logger,
	}
}

func (s *RedisService) studentsKey() string { return s.prefix + studentsSuffix }

func (s *RedisService) nextIDKey() string { return s.prefix + nextIDSuffix }

func (s *RedisService) infoKey(id int64) string {
	return s.prefix + infoSuffix + strconv.FormatInt(id, 10)
}

func draftFields(d models.Draft) map[string]interface{} {
	return map[string]interface{}{
		"name":    d.Name,
		"address": d.Address,
		"phone":   d.Phone,
		"note":    d.Note,
	}
}

// List returns all students ordered by ascending id
func (s *RedisService) List(ctx context.Context) ([]models.StudentRecord, error) {
	members, err := s.Client.ZRange(ctx, s.studentsKey(), 0, -1).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		s.logger.Error("Error listing student ids", zap.Error(err))
		return nil, fmt.Errorf("failed to get student ids from Redis: %w", err)
	}

	ids := make([]int64, 0, len(members))
	pipe := s.Client.Pipeline()
	cmds := make([]*redis.StringStringMapCmd, 0, len(members))
	for _, m := range members {
		id, perr := strconv.ParseInt(m, 10, 64)
		if perr != nil {
			s.logger.Warn("Skipping malformed student id", zap.String("member", m))
			continue
		}
		ids = append(ids, id)
		cmds = append(cmds, pipe.HGetAll(ctx, s.infoKey(id)))
	}
	if len(cmds) > 0 {
		if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
			s.logger.Error("Error fetching student details", zap.Error(err))
			return nil, fmt.Errorf("failed to get students from Redis: %w", err)
		}
	}

	students := make([]models.StudentRecord, 0, len(cmds))
	for i, cmd := range cmds {
		data := cmd.Val()
		if len(data) == 0 {
			// Index entry without a hash; skip it rather than fail the listing.
			s.logger.Warn("Student hash missing", zap.Int64("id", ids[i]))
			continue
		}
		students = append(students, models.StudentRecord{
			ID:      ids[i],
			Name:    data["name"],
			Address: data["address"],
			Phone:   data["phone"],
			Note:    data["note"],
		})
	}
	return students, nil
}

// Insert assigns the next id and stores the student
func (s *RedisService) Insert(ctx context.Context, draft models.Draft) (models.StudentRecord, error) {
	id, err := s.Client.Incr(ctx, s.nextIDKey()).Result()
	if err != nil {
		s.logger.Error("Error allocating student id", zap.Error(err))
		return models.StudentRecord{}, fmt.Errorf("failed to allocate student id: %w", err)
	}

	_, err = s.Client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, s.infoKey(id), draftFields(draft))
		pipe.ZAdd(ctx, s.studentsKey(), &redis.Z{Score: float64(id), Member: strconv.FormatInt(id, 10)})
		return nil
	})
	if err != nil {
		s.logger.Error("Error adding student", zap.Int64("id", id), zap.Error(err))
		return models.StudentRecord{}, fmt.Errorf("failed to add student to Redis: %w", err)
	}
	s.logger.Debug("Added student", zap.Int64("id", id), zap.String("name", draft.Name))
	return draft.WithID(id), nil
}

// Update replaces every editable field of student id
func (s *RedisService) Update(ctx context.Context, id int64, draft models.Draft) (models.StudentRecord, error) {
	key := s.infoKey(id)
	err := s.Client.Watch(ctx, func(tx *redis.Tx) error {
		n, err := tx.Exists(ctx, key).Result()
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrNotFound
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, draftFields(draft))
			return nil
		})
		return err
	}, key)
	if errors.Is(err, ErrNotFound) {
		return models.StudentRecord{}, ErrNotFound
	}
	if err != nil {
		s.logger.Error("Error updating student", zap.Int64("id", id), zap.Error(err))
		return models.StudentRecord{}, fmt.Errorf("failed to update student in Redis: %w", err)
	}
	return draft.WithID(id), nil
}

// Delete removes student id; a missing id is not an error
func (s *RedisService) Delete(ctx context.Context, id int64) error {
	_, err := s.Client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRem(ctx, s.studentsKey(), strconv.FormatInt(id, 10))
		pipe.Del(ctx, s.infoKey(id))
		return nil
	})
	if err != nil {
		s.logger.Error("Error deleting student", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to delete student from Redis: %w", err)
	}
	return nil
}

// Close closes the underlying client
func (s *RedisService) Close() error {
	return s.Client.Close()
}

// InitializeRedisClient creates and tests a Redis client connection
func InitializeRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("could not connect to Redis at %s: %w", cfg.Addr, err)
	}
	return rdb, nil
}
