// Command login verifies photo provider credentials interactively,
// for diagnosing authentication problems without starting the daemon.
package main
