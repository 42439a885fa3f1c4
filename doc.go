// SPDX-License-Identifier: EPL-2.0

// Package gamemix is a real-time audio mixer for games.
//
// A [Session] owns an output stream whose callback renders music, short
// effects and persistent (ambient) effects. Game code talks to the session
// from any goroutine; every call that changes what is heard becomes a
// command on a bounded queue drained by the render callback, which never
// blocks or takes a lock.
//
// # Quick Start
//
//	cfg, err := config.Load("audio.yaml")
//	if err != nil {
//		return err
//	}
//
//	s, err := gamemix.New(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer s.Close()
//
//	_ = s.PlayMusic(0)
//	_ = s.PlayEffect(0, spatial.Vec3{12, 0, 3})
//
// # Effects
//
// Short effects are fire and forget. Each catalog entry has a fixed number of
// voices; playing it while all are busy restarts the oldest one. The volume
// is global × effect × attenuation, fixed for the life of the play.
//
// Persistent effects loop forever. Their volume is recomputed only when
// asked to, from the registered source positions:
//
//	volume = global × effect × Σ attenuation(source, listener)
//
// A persistent effect at volume 0 is not decoded at all, so it resumes
// where it was left.
//
// # Music
//
// One track plays at a time. The transition decides how PlayMusic replaces
// it: [mix.Instant] cuts, [mix.Smooth] fades the old track out before the
// new one starts, [mix.Overlap] crossfades both.
//
// # Reset
//
// [Session.Reset] builds a complete new state from another configuration,
// starts it, and only then stops the old one.
//
// # Decoders
//
// Files are opened by extension through an [audio.Registry]. The
// [DefaultRegistry] covers WAV, MP3, Ogg Vorbis and AIFF, all 16-bit PCM or
// compressed, mono or stereo. Sample rates must match the session; there is
// no resampling.
package gamemix
