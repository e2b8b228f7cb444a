package timing

// BeatInfo is the result of mapping a time back to a beat: the beat
// reached at that time, plus whether playback is inside a stop (freeze)
// or a delay at that instant.
type BeatInfo struct {
	Beat       float64
	IsInFreeze bool
	IsInDelay  bool
}

// BeatForTime is the inverse of TimeForBeat: the beat reached at the
// given time in seconds.
func (d *Data) BeatForTime(timeSec float64) float64 {
	return d.BeatInfoForTime(timeSec).Beat
}

// BeatInfoForTime replays the merged event stream until the queried time
// and reports the beat reached plus the freeze/delay state at that
// instant. While a stop or delay holds the beat fixed, the returned beat
// is the segment's own beat.
func (d *Data) BeatInfoForTime(timeSec float64) BeatInfo {
	elapsed := timeSec + d.globalOffsetSec
	segs := d.segments

	lastTime := -d.beat0OffsetSeconds() - d.globalOffsetSec
	bpmIdx, stopIdx, delayIdx, warpIdx := 0, 0, 0, 0
	lastRow := int64(0)
	isWarping := false
	warpDestination := 0.0
	bps := d.bpmForBeatRaw(rowToBeat(lastRow)) / 60.0

	var info BeatInfo

	for {
		eventRow, eventType, ok := findEvent(segs, bpmIdx, stopIdx, delayIdx, warpIdx, isWarping, warpDestination, 0, false)
		if !ok {
			break
		}
		if eventType == eventStopDelay && delayIdx >= len(segs.Delays) {
			// The stop collided with a non-delay event on its row.
			eventType = eventStop
		}

		var timeToNext float64
		if !isWarping {
			timeToNext = rowToBeat(eventRow-lastRow) / bps
		}
		nextEventTime := lastTime + timeToNext
		if elapsed < nextEventTime {
			break
		}
		lastTime = nextEventTime

		switch eventType {
		case eventWarpDest:
			isWarping = false
		case eventBPM:
			bps = segs.BPMs[bpmIdx].Value / 60.0
			bpmIdx++
		case eventDelay, eventStopDelay:
			delay := segs.Delays[delayIdx]
			if elapsed < lastTime+delay.Value {
				info.IsInDelay = true
				info.Beat = delay.Beat
				return info
			}
			lastTime += delay.Value
			delayIdx++
			if eventType == eventDelay {
				// The delay consumed this row's time; the row index only
				// advances once any colliding stop is handled too.
				continue
			}
		case eventStop:
			stop := segs.Stops[stopIdx]
			if elapsed < lastTime+stop.Value {
				info.IsInFreeze = true
				info.Beat = stop.Beat
				return info
			}
			lastTime += stop.Value
			stopIdx++
		case eventWarp:
			isWarping = true
			w := segs.Warps[warpIdx]
			if sum := w.Beat + w.Value; sum > warpDestination {
				warpDestination = sum
			}
			warpIdx++
		}
		lastRow = eventRow
	}

	info.Beat = rowToBeat(lastRow) + (elapsed-lastTime)*bps
	return info
}
