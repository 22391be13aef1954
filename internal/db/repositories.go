package db

// Repositories provides access to all database repositories
type Repositories struct {
	Channels  *ChannelRepository
	Programs  *ProgramRepository
	Lineups   *LineupRepository
	Fillers   *FillerRepository
	Playback  *PlaybackRepository
	Schedules *ScheduleRepository
}

// NewRepositories creates a new repository collection
func NewRepositories(db *DB) *Repositories {
	return &Repositories{
		Channels:  NewChannelRepository(db),
		Programs:  NewProgramRepository(db),
		Lineups:   NewLineupRepository(db),
		Fillers:   NewFillerRepository(db),
		Playback:  NewPlaybackRepository(db),
		Schedules: NewScheduleRepository(db),
	}
}
