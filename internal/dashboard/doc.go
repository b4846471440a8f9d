// Package dashboard implements the live terminal screen.
//
// The Model polls a Reader on every refresh tick. Reads happen inside
// tea.Cmds so a slow probe never blocks key handling, and at most one frame
// read is outstanding at a time. The branch indicator shells out to git, so
// it is re-read on its own, slower cadence.
//
// Layout:
//
//	termdash | ubuntu 22.04 | up 1d 02h 05m | main             12:04:31
//	╭ CPU ──────────────╮╭ MEMORY ───────────╮╭ NETWORK ──────────╮
//	│ 23%  ▰▰▱▱▱▱▱▱▱▱   ││ 41%  ▰▰▰▰▱▱▱▱▱▱   ││ ↓ 1.2 MB/s        │
//	│ ▁▂▃▂▁▂▅▇▅▃        ││ 3.2 GB / 7.8 GB   ││ ↑ 88 KB/s         │
//	╰───────────────────╯╰───────────────────╯╰───────────────────╯
//
// Sparkline history lives only in memory and is bounded by DefaultHistorySize.
package dashboard
