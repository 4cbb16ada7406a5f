// Package provision makes an experiment node available for SSH.
//
// Two provisioners implement the same contract: External runs a
// configured provisioning command and trusts it to write the node
// address file, Native speaks to the portal directly and writes the
// file itself. Either way a run ends with node_ip.txt holding a single
// validated IP address, so downstream steps and external consumers see
// the same artifact regardless of mode.
package provision
