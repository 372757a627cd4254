/*
Package session hosts many live wizards for network adapters.

A Manager opens wizards through an Opener (normally *stepwise.Engine),
addresses them by session ID, serializes events per session (optionally
across replicas with a ports.DistributedLocker) and fans view updates out
to subscribers such as SSE streams. Finished sessions leave a final view
behind until the idle sweep collects them.
*/
package session
