// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// Services never talk to infrastructure directly; every external
// collaborator comes in through a driven port.
package services
