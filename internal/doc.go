// Package flexmeasuresentsoe implements an importer of ENTSO-E transparency
// data for a FlexMeasures-style energy data platform.
//
// # Architecture
//
// The importer is structured into several key packages:
//   - entsoe: client for the ENTSO-E transparency API (zones, documents)
//   - series: date-range resolution, completeness checks and resampling
//   - database: Postgres storage of assets, sensors and belief records
//   - importer: orchestration of one import run
//   - scheduler: periodic imports in serve mode
//   - config: YAML configuration with environment expansion
//
// Key behaviors
//
//   - Date windows:
//     CLI dates are calendar days in the bidding zone's timezone; the until
//     date is inclusive. Without dates, a default policy (today, tomorrow,
//     or both) anchors the window at local midnight.
//
//   - Validation:
//     An import aborts before persistence when the source returns no data,
//     or fewer periods than the window requires at the data's own
//     resolution.
//
//   - Resampling:
//     Fetched series are adapted to each sensor's event resolution by
//     forward-fill upsampling or mean downsampling.
//
//   - Beliefs:
//     Saved values carry a belief time reflecting when the day-ahead
//     auction result became known (D-1 18:00 local, clipped to the run
//     time), and re-imports are idempotent.
package flexmeasuresentsoe
