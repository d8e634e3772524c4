// Package torproc launches a tor router as a child process and reports when
// it has bootstrapped, so a controller can start speaking to it.
//
// The core functionality centers around the Supervisor type, configured
// with fluent builder methods and started with Launch:
//
//	sup := torproc.New(torproc.WithLogger(logger)).
//	    WithConfigFile("/etc/tor/torrc").
//	    WithArgs("--SocksPort", "9050").
//	    WithTargetPercent(100).
//	    WithDeadlineSeconds(60)
//	defer sup.Close()
//
//	stdout, err := sup.Launch(ctx)
//	if err != nil {
//	    var routerErr *torproc.RouterError
//	    if errors.As(err, &routerErr) {
//	        log.Printf("tor failed: %s (warnings: %v)", routerErr.Line, routerErr.Warnings)
//	    }
//	    return err
//	}
//
//	// stdout is positioned right after the bootstrap notice
//	line, err := stdout.ReadString('\n')
//
// # Log Monitoring
//
// Launch reads the router's standard output line by line. Every line starts
// with a 19-character timestamp ("May 16 02:50:08.792"), a space and a body
// whose first token is a severity tag. Only three things are interpreted:
//
//   - "[notice] Bootstrapped N%: ..." completes the launch once N reaches
//     the target percent
//   - "[warn]" lines are collected and attached to a later RouterError
//   - "[err]" lines fail the launch with a RouterError
//
// ClassifyLine exposes the same classification for callers that keep
// reading the router's output after launch.
//
// # Process Ownership
//
// The child runs in its own process group. Every failure path of Launch
// kills the group and reaps the child before returning. After a successful
// launch the child keeps running until Kill or Close; Close must be called
// (typically deferred) so no router outlives its supervisor. Standard error
// is drained in the background and can be copied with WithStderr.
//
// # Configuration Reload
//
// Reload sends SIGHUP to the router. WatchConfig does so automatically when
// the configuration file changes on disk.
package torproc
