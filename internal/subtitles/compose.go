package subtitles

import (
	"fmt"
	"time"
)

// PresentationBlock is one cue of the composed output. Timing is copied
// verbatim from the source transcripts; Primary carries the translated text
// and Secondary the original, subject to the layout.
type PresentationBlock struct {
	Index     int
	Start     time.Duration
	End       time.Duration
	Primary   []string
	Secondary []string
}

// PresentationTrack is the composed, render-ready form of a run.
type PresentationTrack struct {
	Layout Layout
	Blocks []PresentationBlock
}

// AlignmentError reports a mismatch between the two language tracks at
// composition time. It is always fatal: a misaligned bilingual track is worse
// than no track.
type AlignmentError struct {
	Index  int
	Detail string
}

func (e *AlignmentError) Error() string {
	if e.Index > 0 {
		return fmt.Sprintf("track alignment: block %d: %s", e.Index, e.Detail)
	}
	return fmt.Sprintf("track alignment: %s", e.Detail)
}

// Compose aligns the primary (translated) and secondary (original) transcripts
// into a PresentationTrack. For bilingual layout both transcripts must cover
// identical index ranges with identical timing. Single-language layouts need
// only their own transcript; the other may be nil.
//
// Compose never produces a partial track: any mismatch returns an
// AlignmentError and no output.
func Compose(primary, secondary *Transcript, layout Layout) (*PresentationTrack, error) {
	switch layout {
	case LayoutBilingual:
		if primary == nil || secondary == nil {
			return nil, &AlignmentError{Detail: "bilingual layout needs both transcripts"}
		}
		if primary.BlockCount() != secondary.BlockCount() {
			return nil, &AlignmentError{Detail: fmt.Sprintf("block counts differ: primary %d, secondary %d", primary.BlockCount(), secondary.BlockCount())}
		}
		blocks := make([]PresentationBlock, 0, primary.BlockCount())
		for i := range primary.Blocks {
			p := primary.Blocks[i]
			s := secondary.Blocks[i]
			if p.Index != s.Index {
				return nil, &AlignmentError{Index: p.Index, Detail: fmt.Sprintf("index mismatch: primary %d, secondary %d", p.Index, s.Index)}
			}
			if p.Start != s.Start || p.End != s.End {
				return nil, &AlignmentError{Index: p.Index, Detail: fmt.Sprintf("timing mismatch: primary %s-%s, secondary %s-%s",
					formatSRTTimestamp(p.Start), formatSRTTimestamp(p.End), formatSRTTimestamp(s.Start), formatSRTTimestamp(s.End))}
			}
			if p.Empty() {
				return nil, &AlignmentError{Index: p.Index, Detail: "primary block has no text"}
			}
			blocks = append(blocks, PresentationBlock{
				Index:     p.Index,
				Start:     p.Start,
				End:       p.End,
				Primary:   append([]string(nil), p.Lines...),
				Secondary: append([]string(nil), s.Lines...),
			})
		}
		return &PresentationTrack{Layout: layout, Blocks: blocks}, nil

	case LayoutPrimaryOnly:
		if primary == nil {
			return nil, &AlignmentError{Detail: "primary_only layout needs the primary transcript"}
		}
		return singleTrack(primary, layout, true), nil

	case LayoutSecondaryOnly:
		if secondary == nil {
			return nil, &AlignmentError{Detail: "secondary_only layout needs the secondary transcript"}
		}
		return singleTrack(secondary, layout, false), nil

	default:
		return nil, &AlignmentError{Detail: fmt.Sprintf("unknown layout %q", layout)}
	}
}

func singleTrack(t *Transcript, layout Layout, asPrimary bool) *PresentationTrack {
	blocks := make([]PresentationBlock, 0, len(t.Blocks))
	for _, block := range t.Blocks {
		pb := PresentationBlock{
			Index: block.Index,
			Start: block.Start,
			End:   block.End,
		}
		lines := append([]string(nil), block.Lines...)
		if asPrimary {
			pb.Primary = lines
		} else {
			pb.Secondary = lines
		}
		blocks = append(blocks, pb)
	}
	return &PresentationTrack{Layout: layout, Blocks: blocks}
}
