/*
Package ports defines the driven ports (interfaces) around the stepwise core.

These interfaces decouple wizard logic from the outside world: where flow
definitions come from, how a finished wizard is packaged, and where results
end up once a host decides to keep them.

# Key Interfaces

  - FlowLoader: Retrieves flow definitions (embedded catalog, YAML files, Loam, memory).
  - Submitter: Packages a completed session into a WizardResult, asynchronously from the wizard's view.
  - ResultStore: Persists packaged results (memory, file, Redis, SQLite).
  - DistributedLocker: Coordinates access to a live session across replicas.
*/
package ports
