package sqlinline

const QInsertCaption = `--sql 642813e3-7044-4b32-a562-5f495ec79a7a
insert into captions (id, owner_id, caption, hashtags, cta, tone, platform, goal, credits_used, created_at)
values ($1::uuid, $2::uuid, $3::text, $4::text[], $5::text, $6::text, $7::text, $8::text, $9::int, now())
returning created_at;
`

const QListCaptionsByOwner = `--sql 493fa5b3-9058-474c-bd2b-6822f8a7d14b
select id, owner_id, caption, hashtags, cta, tone, platform, goal, credits_used, created_at
from captions
where owner_id = $1::uuid
order by created_at desc
limit $2::int;
`
