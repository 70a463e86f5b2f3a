package database

import (
	"database/sql"
	"os"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/joho/godotenv/autoload"
	_ "github.com/mattn/go-sqlite3"
)

type Service struct {
	db            *sql.DB
	m             *sync.Mutex
	resultsTable  string
	sessionsTable string
}

var (
	resultsTable  = "elfern_results"
	sessionsTable = "elfern_sessions"
	dbInstance    *Service
)

// New opens the database and ensures both tables exist. The driver and
// DSN come from the environment (loaded from .env by godotenv); the
// default is a local sqlite file next to the binary.
func New() Service {
	driver := os.Getenv("DB_DRIVER")
	if driver == "" {
		driver = "sqlite3"
	}
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		dsn = "./elfern.db"
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		panic(err)
	}

	sqlStmt := `
	create table if not exists elfern_results (
		id string not null primary key,
		created_at string,
		player string,
		winner string,
		player_score integer,
		opponent_score integer,
		rounds integer
	);
	create table if not exists elfern_sessions (
		player string not null primary key,
		created_at string,
		deck string,
		stock string,
		player_hand string,
		opponent_hand string,
		batch_dealer string,
		current_round integer,
		max_rounds integer,
		player_score integer,
		opponent_score integer
	);
	`
	_, err = db.Exec(sqlStmt)
	if err != nil {
		panic(err)
	}

	dbInstance = &Service{
		db:            db,
		resultsTable:  resultsTable,
		sessionsTable: sessionsTable,
		m:             &sync.Mutex{},
	}

	return *dbInstance
}

func (s *Service) Close() error {
	return s.db.Close()
}

// --- Results ---

func (s *Service) GetAll() ([]GameResult, error) {
	s.m.Lock()
	defer s.m.Unlock()
	rows, err := s.db.Query("SELECT * FROM " + s.resultsTable)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []GameResult
	for rows.Next() {
		var result GameResult
		if err := rows.Scan(
			&result.ID,
			&result.CreatedAt,
			&result.Player,
			&result.Winner,
			&result.PlayerScore,
			&result.OpponentScore,
			&result.Rounds); err != nil {
			return nil, err
		}
		results = append(results, result)
	}

	return results, nil
}

func (s *Service) GetByID(id string) (GameResult, error) {
	s.m.Lock()
	defer s.m.Unlock()
	var result GameResult
	err := s.db.QueryRow("SELECT * FROM "+s.resultsTable+" WHERE id = ?", id).Scan(
		&result.ID,
		&result.CreatedAt,
		&result.Player,
		&result.Winner,
		&result.PlayerScore,
		&result.OpponentScore,
		&result.Rounds)
	if err != nil {
		return GameResult{}, err
	}
	return result, nil
}

func (s *Service) Insert(result GameResult) error {
	s.m.Lock()
	defer s.m.Unlock()
	_, err := s.db.Exec("INSERT INTO "+s.resultsTable+
		" (id, created_at, player, winner, player_score, opponent_score, rounds) VALUES (?, ?, ?, ?, ?, ?, ?)",
		result.ID,
		result.CreatedAt,
		result.Player,
		result.Winner,
		result.PlayerScore,
		result.OpponentScore,
		result.Rounds)

	if err != nil {
		return err
	}

	return nil
}

func (s *Service) GetByPlayer(playerName string) ([]GameResult, error) {
	s.m.Lock()
	defer s.m.Unlock()
	rows, err := s.db.Query("SELECT * FROM "+s.resultsTable+" WHERE player = ?", playerName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []GameResult
	for rows.Next() {
		var result GameResult
		if err := rows.Scan(
			&result.ID,
			&result.CreatedAt,
			&result.Player,
			&result.Winner,
			&result.PlayerScore,
			&result.OpponentScore,
			&result.Rounds); err != nil {
			return nil, err
		}
		results = append(results, result)
	}

	if len(results) == 0 {
		return nil, sql.ErrNoRows // No results found
	}

	return results, nil
}

// --- Sessions ---

// SaveSession upserts the stored session of a player. Each player has at
// most one interrupted session.
func (s *Service) SaveSession(row SessionRow) error {
	s.m.Lock()
	defer s.m.Unlock()
	_, err := s.db.Exec("INSERT OR REPLACE INTO "+s.sessionsTable+
		" (player, created_at, deck, stock, player_hand, opponent_hand, batch_dealer, current_round, max_rounds, player_score, opponent_score)"+
		" VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		row.Player,
		row.CreatedAt,
		row.Deck,
		row.Stock,
		row.PlayerHand,
		row.OpponentHand,
		row.BatchDealer,
		row.CurrentRound,
		row.MaxRounds,
		row.PlayerScore,
		row.OpponentScore)
	return err
}

// LoadSession fetches the stored session of a player; sql.ErrNoRows when
// there is none.
func (s *Service) LoadSession(playerName string) (SessionRow, error) {
	s.m.Lock()
	defer s.m.Unlock()
	var row SessionRow
	err := s.db.QueryRow("SELECT * FROM "+s.sessionsTable+" WHERE player = ?", playerName).Scan(
		&row.Player,
		&row.CreatedAt,
		&row.Deck,
		&row.Stock,
		&row.PlayerHand,
		&row.OpponentHand,
		&row.BatchDealer,
		&row.CurrentRound,
		&row.MaxRounds,
		&row.PlayerScore,
		&row.OpponentScore)
	if err != nil {
		return SessionRow{}, err
	}
	return row, nil
}

// DeleteSession drops the stored session of a player, if any. Called
// when a match concludes or a new one is started.
func (s *Service) DeleteSession(playerName string) error {
	s.m.Lock()
	defer s.m.Unlock()
	_, err := s.db.Exec("DELETE FROM "+s.sessionsTable+" WHERE player = ?", playerName)
	return err
}
