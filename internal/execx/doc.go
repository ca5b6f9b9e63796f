// Package execx runs external programs for the airflow-dev CLI.
//
// Every command the bootstrapper issues (python, pip, docker) goes through
// the Runner interface, which exposes exactly two things: run a command and
// get its exit status, or run it and capture its stdout. Keeping the
// surface this narrow lets the fatal-on-nonzero policy and the
// container/volume existence checks be tested with execxtest.FakeRunner
// instead of real tools.
package execx
