package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

type GameStatus string
type BettingRound string
type GameType string
type ActionType string
type AIDifficulty string

const (
	StatusWaiting    GameStatus = "waiting"
	StatusInProgress GameStatus = "in_progress"
	StatusCompleted  GameStatus = "completed"
)

const (
	RoundPreFlop  BettingRound = "pre_flop"
	RoundFlop     BettingRound = "flop"
	RoundTurn     BettingRound = "turn"
	RoundRiver    BettingRound = "river"
	RoundShowdown BettingRound = "showdown"
)

const (
	GameTypePractice    GameType = "practice"
	GameTypeMultiplayer GameType = "multiplayer"
)

const (
	ActionFold  ActionType = "fold"
	ActionCheck ActionType = "check"
	ActionCall  ActionType = "call"
	ActionRaise ActionType = "raise"
	ActionAllIn ActionType = "all_in"
)

const (
	DifficultyNovice       AIDifficulty = "novice"
	DifficultyIntermediate AIDifficulty = "intermediate"
	DifficultyExpert       AIDifficulty = "expert"
)

// WinningHandLastStanding marks a hand settled without evaluation
// because everyone else folded.
const WinningHandLastStanding = "Last Standing"

// Game is the authoritative per-table row. Version is a monotonic
// counter bumped on every write; updates are conditional on it so two
// near-simultaneous writers cannot both apply.
type Game struct {
	ID                  string         `gorm:"column:id;type:varchar(36);primaryKey" json:"id"`
	HostUserID          *string        `gorm:"column:host_user_id;type:varchar(36);index" json:"host_user_id,omitempty"`
	GameType            GameType       `gorm:"column:game_type;type:varchar(16);not null" json:"game_type"`
	AIDifficulty        AIDifficulty   `gorm:"column:ai_difficulty;type:varchar(16)" json:"ai_difficulty,omitempty"`
	Status              GameStatus     `gorm:"column:status;type:varchar(16);default:waiting;index" json:"status"`
	CurrentRound        BettingRound   `gorm:"column:current_round;type:varchar(16)" json:"current_round,omitempty"`
	BuyIn               int            `gorm:"column:buy_in;not null" json:"buy_in"`
	SmallBlind          int            `gorm:"column:small_blind;not null" json:"small_blind"`
	BigBlind            int            `gorm:"column:big_blind;not null" json:"big_blind"`
	MaxPlayers          int            `gorm:"column:max_players;not null" json:"max_players"`
	CurrentPlayers      int            `gorm:"column:current_players;default:0" json:"current_players"`
	DealerPosition      int            `gorm:"column:dealer_position;default:0" json:"dealer_position"`
	PotAmount           int            `gorm:"column:pot_amount;default:0" json:"pot_amount"`
	CommunityCards      datatypes.JSON `gorm:"column:community_cards" json:"community_cards"`
	Deck                datatypes.JSON `gorm:"column:deck" json:"-"`
	CurrentTurnPlayerID *string        `gorm:"column:current_turn_player_id;type:varchar(36)" json:"current_turn_player_id,omitempty"`
	WinnerPlayerID      *string        `gorm:"column:winner_player_id;type:varchar(36)" json:"winner_player_id,omitempty"`
	WinningHand         string         `gorm:"column:winning_hand;type:varchar(32)" json:"winning_hand,omitempty"`
	FinalPotAmount      *int           `gorm:"column:final_pot_amount" json:"final_pot_amount,omitempty"`
	Version             int64          `gorm:"column:version;default:0" json:"version"`
	CreatedAt           time.Time      `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	StartedAt           *time.Time     `gorm:"column:started_at" json:"started_at,omitempty"`
	EndedAt             *time.Time     `gorm:"column:ended_at" json:"ended_at,omitempty"`
}

func (Game) TableName() string {
	return "games"
}

// Player is one seat at one game. Seat positions are unique and dense
// in [0, MaxPlayers) for seated players.
type Player struct {
	ID         string         `gorm:"column:id;type:varchar(36);primaryKey" json:"id"`
	GameID     string         `gorm:"column:game_id;type:varchar(36);not null;index:idx_game_seat,unique" json:"game_id"`
	Position   int            `gorm:"column:seat_position;not null;index:idx_game_seat,unique" json:"seat_position"`
	UserID     *string        `gorm:"column:user_id;type:varchar(36);index" json:"user_id,omitempty"`
	IsAI       bool           `gorm:"column:is_ai;default:false" json:"is_ai"`
	AIName     string         `gorm:"column:ai_name;type:varchar(50)" json:"ai_name,omitempty"`
	Chips      int            `gorm:"column:chips;not null" json:"chips"`
	CurrentBet int            `gorm:"column:current_bet;default:0" json:"current_bet"`
	IsFolded   bool           `gorm:"column:is_folded;default:false" json:"is_folded"`
	IsAllIn    bool           `gorm:"column:is_all_in;default:false" json:"is_all_in"`
	HoleCards  datatypes.JSON `gorm:"column:hole_cards" json:"hole_cards,omitempty"`
	Winnings   int            `gorm:"column:winnings;default:0" json:"winnings"`
	JoinedAt   time.Time      `gorm:"column:joined_at;autoCreateTime" json:"joined_at"`
}

func (Player) TableName() string {
	return "game_players"
}

// Action is one row in the append-only action log. RequestID makes the
// log write-once: replaying an already-recorded request never mutates
// chips or pot a second time.
type Action struct {
	ID         string       `gorm:"column:id;type:varchar(36);primaryKey" json:"id"`
	GameID     string       `gorm:"column:game_id;type:varchar(36);not null;index" json:"game_id"`
	PlayerID   string       `gorm:"column:player_id;type:varchar(36);not null" json:"player_id"`
	ActionType ActionType   `gorm:"column:action_type;type:varchar(16);not null" json:"action_type"`
	Amount     int          `gorm:"column:amount;default:0" json:"amount"`
	Round      BettingRound `gorm:"column:round;type:varchar(16);not null" json:"round"`
	RequestID  string       `gorm:"column:request_id;type:varchar(64);uniqueIndex" json:"request_id,omitempty"`
	CreatedAt  time.Time    `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (Action) TableName() string {
	return "game_actions"
}

// Profile is the external ledger row. The engine only ever touches the
// balance field; everything else about users lives outside this
// subsystem.
type Profile struct {
	ID        string    `gorm:"column:id;type:varchar(36);primaryKey" json:"id"`
	Balance   int       `gorm:"column:balance;default:0" json:"balance"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Profile) TableName() string {
	return "profiles"
}

// JSON column helpers. Card-bearing columns hold arrays of the two
// character text form.

func encodeCards(cards []Card) datatypes.JSON {
	raw, _ := json.Marshal(CardStrings(cards))
	return datatypes.JSON(raw)
}

func decodeCards(col datatypes.JSON) ([]Card, error) {
	if len(col) == 0 {
		return nil, nil
	}
	var raw []string
	if err := json.Unmarshal(col, &raw); err != nil {
		return nil, err
	}
	return ParseCards(raw)
}

func (g *Game) CommunityCardList() ([]Card, error) {
	return decodeCards(g.CommunityCards)
}

func (g *Game) SetCommunityCards(cards []Card) {
	g.CommunityCards = encodeCards(cards)
}

func (g *Game) DeckRemainder() (Deck, error) {
	cards, err := decodeCards(g.Deck)
	if err != nil {
		return nil, err
	}
	return Deck(cards), nil
}

func (g *Game) SetDeckRemainder(d Deck) {
	g.Deck = encodeCards(d)
}

func (p *Player) HoleCardList() ([]Card, error) {
	return decodeCards(p.HoleCards)
}

func (p *Player) SetHoleCards(cards []Card) {
	p.HoleCards = encodeCards(cards)
}
