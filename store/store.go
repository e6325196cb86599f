package store

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"poker-service/models"
	apperr "poker-service/pkg/errors"
)

// Store wraps the relational side of game state. All reads return the
// authoritative rows; all game-row writes go through the version check
// so concurrent writers cannot silently overwrite each other.
type Store struct {
	db  *gorm.DB
	log *zap.Logger
}

func New(db *gorm.DB, log *zap.Logger) *Store {
	return &Store{db: db, log: log}
}

// AutoMigrate creates or updates the engine's tables.
func (s *Store) AutoMigrate() error {
	return s.db.AutoMigrate(
		&models.Game{},
		&models.Player{},
		&models.Action{},
		&models.Profile{},
	)
}

// Transact runs fn inside a database transaction. The Store handed to
// fn shares the outer logger but writes through the transaction.
func (s *Store) Transact(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx, log: s.log})
	})
}

func (s *Store) CreateGame(ctx context.Context, game *models.Game) error {
	return s.db.WithContext(ctx).Create(game).Error
}

func (s *Store) GetGame(ctx context.Context, id string) (*models.Game, error) {
	var game models.Game
	err := s.db.WithContext(ctx).First(&game, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.ErrGameNotFound
	}
	if err != nil {
		return nil, err
	}
	return &game, nil
}

// ListJoinableGames returns waiting multiplayer games with open seats,
// newest first.
func (s *Store) ListJoinableGames(ctx context.Context, limit int) ([]models.Game, error) {
	var games []models.Game
	err := s.db.WithContext(ctx).
		Where("status = ? AND game_type = ? AND current_players < max_players",
			models.StatusWaiting, models.GameTypeMultiplayer).
		Order("created_at DESC").
		Limit(limit).
		Find(&games).Error
	return games, err
}

// ListActiveGames returns games currently being played, oldest first.
func (s *Store) ListActiveGames(ctx context.Context, limit int) ([]models.Game, error) {
	var games []models.Game
	err := s.db.WithContext(ctx).
		Where("status = ?", models.StatusInProgress).
		Order("created_at ASC").
		Limit(limit).
		Find(&games).Error
	return games, err
}

// SaveGame writes the game row conditionally on the version it was read
// at. On success the in-memory version is bumped to match the row. A
// conflicting concurrent write surfaces as ErrVersionConflict and
// nothing is applied.
func (s *Store) SaveGame(ctx context.Context, game *models.Game) error {
	readVersion := game.Version
	game.Version = readVersion + 1

	res := s.db.WithContext(ctx).
		Model(&models.Game{}).
		Where("id = ? AND version = ?", game.ID, readVersion).
		Select("*").
		Omit("id", "created_at").
		Updates(game)
	if res.Error != nil {
		game.Version = readVersion
		return res.Error
	}
	if res.RowsAffected == 0 {
		game.Version = readVersion
		s.log.Debug("game version conflict",
			zap.String("game_id", game.ID),
			zap.Int64("version", readVersion))
		return apperr.ErrVersionConflict
	}
	return nil
}

func (s *Store) CreatePlayer(ctx context.Context, player *models.Player) error {
	return s.db.WithContext(ctx).Create(player).Error
}

func (s *Store) GetPlayer(ctx context.Context, gameID, playerID string) (*models.Player, error) {
	var player models.Player
	err := s.db.WithContext(ctx).
		First(&player, "game_id = ? AND id = ?", gameID, playerID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.ErrPlayerNotFound
	}
	if err != nil {
		return nil, err
	}
	return &player, nil
}

// GetPlayers returns every seat at a game in position order.
func (s *Store) GetPlayers(ctx context.Context, gameID string) ([]*models.Player, error) {
	var players []*models.Player
	err := s.db.WithContext(ctx).
		Where("game_id = ?", gameID).
		Order("seat_position ASC").
		Find(&players).Error
	return players, err
}

func (s *Store) SavePlayer(ctx context.Context, player *models.Player) error {
	return s.db.WithContext(ctx).Save(player).Error
}

func (s *Store) SavePlayers(ctx context.Context, players []*models.Player) error {
	for _, p := range players {
		if err := s.SavePlayer(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) DeletePlayer(ctx context.Context, gameID, playerID string) error {
	return s.db.WithContext(ctx).
		Where("game_id = ? AND id = ?", gameID, playerID).
		Delete(&models.Player{}).Error
}

// ActionExists reports whether a request ID has already been logged.
func (s *Store) ActionExists(ctx context.Context, requestID string) (bool, error) {
	if requestID == "" {
		return false, nil
	}
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.Action{}).
		Where("request_id = ?", requestID).
		Count(&count).Error
	return count > 0, err
}

// RecordAction appends to the action log. The log is write-once per
// request ID: a replayed request returns recorded=false with no error
// and no new row.
func (s *Store) RecordAction(ctx context.Context, action *models.Action) (bool, error) {
	if action.RequestID != "" {
		var count int64
		err := s.db.WithContext(ctx).
			Model(&models.Action{}).
			Where("request_id = ?", action.RequestID).
			Count(&count).Error
		if err != nil {
			return false, err
		}
		if count > 0 {
			return false, nil
		}
	}
	if err := s.db.WithContext(ctx).Create(action).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// ActionsForRound returns the actions logged this hand for one betting
// round, oldest first.
func (s *Store) ActionsForRound(ctx context.Context, gameID string, round models.BettingRound) ([]models.Action, error) {
	var actions []models.Action
	err := s.db.WithContext(ctx).
		Where("game_id = ? AND round = ?", gameID, round).
		Order("created_at ASC").
		Find(&actions).Error
	return actions, err
}

// ClearActions empties the game's action log. Runs at the start of each
// hand so round-completion checks only ever see the current hand.
func (s *Store) ClearActions(ctx context.Context, gameID string) error {
	return s.db.WithContext(ctx).
		Where("game_id = ?", gameID).
		Delete(&models.Action{}).Error
}
