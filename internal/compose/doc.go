// Package compose inspects a Docker Compose file to work out the names
// compose gives to the resources it creates.
//
// The bootstrapper needs the real name of the database container and its
// named volume to tear them down on --reset-db. Compose derives both from
// the project name:
//   - project: COMPOSE_PROJECT_NAME from the environment or the project's
//     .env file, else the top-level `name`, else the normalized basename
//     of the project directory
//   - container: `<project>-<service>-1`, unless the service sets
//     `container_name`
//   - volume: `<project>_<key>`, unless the volume sets `name`
//
// Only the fields needed for this are parsed; everything else in the file
// is ignored.
package compose
