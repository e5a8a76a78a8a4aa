package main

import (
	_ "github.com/alexisbeaulieu97/ovhkit/internal/plugins/cloudbucket"
	_ "github.com/alexisbeaulieu97/ovhkit/internal/plugins/cloudinstance"
	_ "github.com/alexisbeaulieu97/ovhkit/internal/plugins/cloudinstanceinfo"
	_ "github.com/alexisbeaulieu97/ovhkit/internal/plugins/cloudinstancenetwork"
	_ "github.com/alexisbeaulieu97/ovhkit/internal/plugins/cloudinstancepower"
	_ "github.com/alexisbeaulieu97/ovhkit/internal/plugins/cloudinstancewait"
	_ "github.com/alexisbeaulieu97/ovhkit/internal/plugins/cloudmonthlybilling"
	_ "github.com/alexisbeaulieu97/ovhkit/internal/plugins/cloudsshkey"
	_ "github.com/alexisbeaulieu97/ovhkit/internal/plugins/clouduser"
	_ "github.com/alexisbeaulieu97/ovhkit/internal/plugins/cloudvolume"
	_ "github.com/alexisbeaulieu97/ovhkit/internal/plugins/cloudvolumeattach"
	_ "github.com/alexisbeaulieu97/ovhkit/internal/plugins/cloudvolumesnapshot"
	_ "github.com/alexisbeaulieu97/ovhkit/internal/plugins/dnsrecord"
	_ "github.com/alexisbeaulieu97/ovhkit/internal/plugins/dnszonerefresh"
	_ "github.com/alexisbeaulieu97/ovhkit/internal/plugins/installtemplate"
	_ "github.com/alexisbeaulieu97/ovhkit/internal/plugins/ipfirewall"
	_ "github.com/alexisbeaulieu97/ovhkit/internal/plugins/ipfirewallrule"
	_ "github.com/alexisbeaulieu97/ovhkit/internal/plugins/ipreverse"
	_ "github.com/alexisbeaulieu97/ovhkit/internal/plugins/mailbox"
	_ "github.com/alexisbeaulieu97/ovhkit/internal/plugins/serverboot"
	_ "github.com/alexisbeaulieu97/ovhkit/internal/plugins/serverdisplayname"
	_ "github.com/alexisbeaulieu97/ovhkit/internal/plugins/serverinstall"
	_ "github.com/alexisbeaulieu97/ovhkit/internal/plugins/servermonitoring"
	_ "github.com/alexisbeaulieu97/ovhkit/internal/plugins/servertaskwait"
	_ "github.com/alexisbeaulieu97/ovhkit/internal/plugins/serverterminate"
	_ "github.com/alexisbeaulieu97/ovhkit/internal/plugins/servervrack"
)
