package models

// ItemKind tags the variant of a lineup item. Every consumer of lineup
// items switches exhaustively over this kind; an unknown kind is treated
// as an error item, never silently ignored.
type ItemKind string

const (
	// ItemKindContent is a real program with a backing media asset
	ItemKindContent ItemKind = "content"

	// ItemKindOffline occupies schedule time with no real content assigned.
	// Flex blocks produced by the schedule compiler use this kind too.
	ItemKindOffline ItemKind = "offline"

	// ItemKindRedirect points at another channel's lineup
	ItemKindRedirect ItemKind = "redirect"

	// ItemKindError carries an upstream player error, used transiently
	ItemKindError ItemKind = "error"
)

// IsValid reports whether the kind is one of the known variants
func (k ItemKind) IsValid() bool {
	switch k {
	case ItemKindContent, ItemKindOffline, ItemKindRedirect, ItemKindError:
		return true
	}
	return false
}

// OfflineMode selects what a channel shows during schedule gaps
type OfflineMode string

const (
	// OfflineModePic shows a static image during gaps
	OfflineModePic OfflineMode = "pic"

	// OfflineModeClip loops a fallback program during gaps
	OfflineModeClip OfflineMode = "clip"
)

// OrderMode controls how a program iterator traverses its pool
type OrderMode string

const (
	// OrderModeOrdered walks the pool in its configured order
	OrderModeOrdered OrderMode = "ordered"

	// OrderModeShuffle reshuffles the pool on every full pass
	OrderModeShuffle OrderMode = "shuffle"

	// OrderModeChunkShuffle shuffles fixed-size chunks while preserving
	// order inside each chunk (keeps multi-part episodes together)
	OrderModeChunkShuffle OrderMode = "chunk_shuffle"
)

// SchedulePeriod is the repeat interval of a time-slot schedule
type SchedulePeriod string

const (
	// PeriodDay repeats the slot layout every day
	PeriodDay SchedulePeriod = "day"

	// PeriodWeek repeats the slot layout every week
	PeriodWeek SchedulePeriod = "week"
)

// FlexPreference controls where leftover slot time goes
type FlexPreference string

const (
	// FlexDistribute spreads leftover time across the slot's items as padding
	FlexDistribute FlexPreference = "distribute"

	// FlexEnd appends leftover time as a single trailing flex block
	FlexEnd FlexPreference = "end"
)

// SlotKind identifies what a time slot schedules
type SlotKind string

const (
	// SlotKindShow pulls episodes of a named show
	SlotKindShow SlotKind = "show"

	// SlotKindMovie pulls from the movie pool
	SlotKindMovie SlotKind = "movie"

	// SlotKindFiller pulls clips from a filler list
	SlotKindFiller SlotKind = "filler"

	// SlotKindRedirect points the slot at another channel
	SlotKindRedirect SlotKind = "redirect"

	// SlotKindFlex leaves the slot as dead air for the gap filler
	SlotKindFlex SlotKind = "flex"
)

// HistoryKeyKind distinguishes the two play-history keyspaces
type HistoryKeyKind string

const (
	// HistoryKeyProgram keys last-played times by (channel, program)
	HistoryKeyProgram HistoryKeyKind = "program"

	// HistoryKeyFillerList keys last-played times by (channel, filler list)
	HistoryKeyFillerList HistoryKeyKind = "filler_list"
)
