package repository

// CSVOption applies a configuration option to the CSVSource.
type CSVOption func(*CSVSource)

// WithHistoryPath sets the match history file. Without it the source has
// no history.
func WithHistoryPath(path string) CSVOption {
	return func(s *CSVSource) {
		s.historyPath = path
	}
}

// PostgresOption applies a configuration option to the PostgresSource.
type PostgresOption func(*PostgresSource)

// WithStatsTable overrides the player statistics table name.
func WithStatsTable(name string) PostgresOption {
	return func(s *PostgresSource) {
		if name != "" {
			s.statsTable = name
		}
	}
}

// WithHistoryTable overrides the match history table name.
func WithHistoryTable(name string) PostgresOption {
	return func(s *PostgresSource) {
		if name != "" {
			s.historyTable = name
		}
	}
}

// WithMaxConns caps the pool size.
func WithMaxConns(n int32) PostgresOption {
	return func(s *PostgresSource) {
		if n > 0 {
			s.maxConns = n
		}
	}
}
