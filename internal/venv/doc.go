// Package venv manages the Python virtual environment the Airflow DAGs are
// developed against. It shells out to the global python interpreter and
// to pip inside the environment.
//
// Every command is checked by exit status only. A non-zero status ends the
// bootstrap with that same status; python and pip have already printed the
// reason.
package venv
